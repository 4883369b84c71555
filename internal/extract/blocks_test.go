package extract

import (
	"strings"
	"testing"
)

func TestSerializeTable_NoInjectedStyling(t *testing.T) {
	root := parseBody(t, `<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>`)
	res := Extract(root, Options{})
	want := "<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>"
	if res.Content != want {
		t.Fatalf("got %q, want %q", res.Content, want)
	}
}

func TestSerializeTable_PreservesAllowedAttributes(t *testing.T) {
	root := parseBody(t, `<table style="border:none" border="1" align="center" onclick="evil()">`+
		`<tr style="color:red"><td style="width:5px" colspan="2" data-junk="x">a</td></tr></table>`)
	res := Extract(root, Options{})
	for _, want := range []string{
		`<table style="border:none"`, `border="1"`, `align="center"`,
		`<tr style="color:red">`, `<td style="width:5px" colspan="2">`,
	} {
		if !strings.Contains(res.Content, want) {
			t.Fatalf("missing %q in %q", want, res.Content)
		}
	}
	for _, reject := range []string{"onclick", "data-junk"} {
		if strings.Contains(res.Content, reject) {
			t.Fatalf("disallowed attribute %q leaked into %q", reject, res.Content)
		}
	}
}

func TestSerializeTable_CellContentStaysInline(t *testing.T) {
	// Block elements inside a cell must not emit paragraph breaks that
	// would split the cell markup.
	root := parseBody(t, `<table><tr><td><p>one</p><p>two</p></td></tr></table>`)
	res := Extract(root, Options{})
	if strings.Contains(res.Content, "<br>") {
		t.Fatalf("paragraph break leaked into cell: %q", res.Content)
	}
	if !strings.Contains(res.Content, "<td>one two</td>") {
		t.Fatalf("got %q", res.Content)
	}
}

func TestSerializeTable_NestedTableRecurses(t *testing.T) {
	root := parseBody(t, `<table><tr><td><table><tr><td>deep</td></tr></table></td></tr></table>`)
	res := Extract(root, Options{})
	want := "<table><tr><td><table><tr><td>deep</td></tr></table></td></tr></table>"
	if res.Content != want {
		t.Fatalf("got %q, want %q", res.Content, want)
	}
}

func TestSerializeTable_ImageInCellRegistersRef(t *testing.T) {
	root := parseBody(t, `<p><img src="before.png"></p><table><tr><td><img src="cell.png"></td></tr></table>`)
	res := Extract(root, Options{})
	if len(res.Images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(res.Images))
	}
	if res.Images[1].Placeholder != "{{IMG_1}}" || res.Images[1].SourceURL != "cell.png" {
		t.Fatalf("cell image numbered wrong: %+v", res.Images[1])
	}
	if !strings.Contains(res.Content, "<td>{{IMG_1}}</td>") {
		t.Fatalf("got %q", res.Content)
	}
}

func TestSerializeList_OrderedAndNested(t *testing.T) {
	root := parseBody(t, `<ol><li>first</li><li>second<ul><li>inner</li></ul></li></ol>`)
	res := Extract(root, Options{})
	want := "<ol><li>first</li><li>second <ul><li>inner</li></ul></li></ol>"
	if res.Content != want {
		t.Fatalf("got %q, want %q", res.Content, want)
	}
}

func TestChoicesTable_LabelFormats(t *testing.T) {
	frag := `<table class="choices">` +
		`<tr><td>A</td><td>first</td></tr>` +
		`<tr><td>B</td><td>second</td></tr>` +
		`<tr><td>C</td><td>third</td></tr></table>`

	cases := []struct {
		format string
		want   string
	}{
		{"dot", "A. first<br>B. second<br>C. third"},
		{"bracket", "(A) first<br>(B) second<br>(C) third"},
		{"paren", "A) first<br>B) second<br>C) third"},
		{"", "A) first<br>B) second<br>C) third"},
	}
	for _, tc := range cases {
		root := parseBody(t, frag)
		res := Extract(root, Options{Choices: true, LabelFormat: tc.format})
		if res.Content != tc.want {
			t.Fatalf("format %q: got %q, want %q", tc.format, res.Content, tc.want)
		}
	}
}

func TestChoicesTable_MultiCellContentConcatenated(t *testing.T) {
	root := parseBody(t, `<table class="choices">`+
		`<tr><td>A</td><td>x =</td><td>2</td></tr></table>`)
	res := Extract(root, Options{Choices: true})
	if res.Content != "A) x = 2" {
		t.Fatalf("got %q", res.Content)
	}
}

func TestChoicesTable_SingleCellRowFallsBack(t *testing.T) {
	root := parseBody(t, `<table class="choices"><tr><td>just text</td></tr></table>`)
	res := Extract(root, Options{Choices: true})
	if res.Content != "just text" {
		t.Fatalf("got %q", res.Content)
	}
}

func TestGenericTable_RowsUnderTheadAndTbody(t *testing.T) {
	root := parseBody(t, `<table><thead><tr><th>h</th></tr></thead><tbody><tr><td>v</td></tr></tbody></table>`)
	res := Extract(root, Options{})
	want := "<table><tr><th>h</th></tr><tr><td>v</td></tr></table>"
	if res.Content != want {
		t.Fatalf("got %q, want %q", res.Content, want)
	}
}
