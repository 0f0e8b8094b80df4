package layout

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photonicat/epaper_reader/internal/charset"
)

var testParams = Params{
	Left:            0,
	Width:           100,
	Top:             0,
	Bottom:          100,
	ByteLineHeight:  20,
	MultiLineHeight: 25,
	Indent:          20,
}

var testMetrics = FixedMetrics{ByteWidth: 10, MultiWidth: 20}

func newTestLayout(t *testing.T, p Params) *Layout {
	t.Helper()
	l, err := New(p, testMetrics, charset.ByteOriented)
	require.NoError(t, err)
	return l
}

// randomText mixes words, spaces, wide glyphs and paragraph markers.
func randomText(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	var buf bytes.Buffer
	for buf.Len() < n {
		switch k := r.Intn(20); {
		case k < 14:
			for i := r.Intn(8) + 1; i > 0; i-- {
				buf.WriteByte(byte('a' + r.Intn(26)))
			}
			buf.WriteByte(' ')
		case k < 18:
			buf.WriteString("中文")
		case k < 19:
			buf.WriteByte(ParagraphMarker)
		default:
			buf.WriteString("averyveryverylongwordthatwraps")
		}
	}
	return buf.Bytes()
}

func TestFitLineWraps(t *testing.T) {
	l := newTestLayout(t, testParams)
	ln := l.fitLine([]byte("hello world"), 0)
	assert.Equal(t, 0, ln.Start)
	assert.Equal(t, 10, ln.End)
	assert.Equal(t, 20, ln.Height)
	require.Len(t, ln.Runs, 1)
	assert.Equal(t, Run{Start: 0, End: 10, X: 0, Class: ClassByte}, ln.Runs[0])
}

func TestFitLineRunsAndHeight(t *testing.T) {
	l := newTestLayout(t, testParams)
	ln := l.fitLine([]byte("ab中c"), 0)
	assert.Equal(t, 25, ln.Height)
	assert.Equal(t, []Run{
		{Start: 0, End: 2, X: 0, Class: ClassByte},
		{Start: 2, End: 5, X: 20, Class: ClassMulti},
		{Start: 5, End: 6, X: 40, Class: ClassByte},
	}, ln.Runs)
}

func TestParagraphMarkerIndents(t *testing.T) {
	l := newTestLayout(t, testParams)
	text := []byte("ab\ncd")

	first := l.fitLine(text, 0)
	assert.Equal(t, 2, first.End, "marker ends the line without being consumed")

	second := l.fitLine(text, first.End)
	assert.Equal(t, 5, second.End)
	require.Len(t, second.Runs, 1)
	assert.Equal(t, 20, second.Runs[0].X)
	assert.Equal(t, 3, second.Runs[0].Start)
}

func TestConsecutiveMarkersMakeBlankLines(t *testing.T) {
	l := newTestLayout(t, testParams)
	text := []byte("a\n\nb")
	ln := l.fitLine(text, 1)
	assert.Equal(t, 2, ln.End)
	assert.Empty(t, ln.Runs)
}

func TestWideGlyphForcesProgress(t *testing.T) {
	l, err := New(testParams, FixedMetrics{ByteWidth: 150, MultiWidth: 150}, charset.ByteOriented)
	require.NoError(t, err)
	text := []byte("abc")
	for off := 0; off < len(text); off++ {
		ln := l.fitLine(text, off)
		assert.Equal(t, off+1, ln.End)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	l := newTestLayout(t, testParams)
	text := randomText(1, 20000)

	a, err := l.Build(text)
	require.NoError(t, err)
	b, err := l.Build(text)
	require.NoError(t, err)
	assert.Equal(t, a.Offsets(), b.Offsets())
	assert.Greater(t, a.Count(), 10)
}

func TestRenderMatchesIndex(t *testing.T) {
	params := []Params{
		testParams,
		{Left: 5, Width: 73, Top: 12, Bottom: 140, ByteLineHeight: 16, MultiLineHeight: 24, Indent: 30},
		{Left: 0, Width: 40, Top: 0, Bottom: 25, ByteLineHeight: 20, MultiLineHeight: 25, Indent: 0},
	}
	for seed, p := range params {
		l := newTestLayout(t, p)
		text := randomText(int64(seed), 8000)
		idx, err := l.Build(text)
		require.NoError(t, err)

		offs := idx.Offsets()
		require.Equal(t, 0, offs[0])
		for i, off := range offs {
			if i > 0 {
				require.Greater(t, off, offs[i-1])
			}
			want := len(text)
			if i+1 < len(offs) {
				want = offs[i+1]
			}
			pg := l.Render(text, off)
			assert.Equal(t, want, pg.Next, "page %d", i+1)
			for _, ln := range pg.Lines {
				assert.LessOrEqual(t, ln.Y+ln.Height, p.Bottom)
				assert.GreaterOrEqual(t, ln.Y, p.Top)
			}
		}
	}
}

func TestPageStartingOnMarkerKeepsIndent(t *testing.T) {
	p := testParams
	p.Bottom = 20
	l := newTestLayout(t, p)
	text := []byte("aaaaaaaaaa\nbb")

	idx, err := l.Build(text)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 10}, idx.Offsets())

	pg := l.Render(text, 10)
	require.Len(t, pg.Lines, 1)
	assert.Equal(t, 20, pg.Lines[0].Runs[0].X)
	assert.Equal(t, len(text), pg.Next)
}

func TestBuildFixedPages(t *testing.T) {
	l := newTestLayout(t, testParams)
	text := bytes.Repeat([]byte("x"), 5000)

	idx, err := l.Build(text)
	require.NoError(t, err)
	require.Equal(t, 100, idx.Count())
	for p := 1; p <= idx.Count(); p++ {
		off, ok := idx.Offset(p)
		require.True(t, ok)
		assert.Equal(t, (p-1)*50, off)
	}
	_, ok := idx.Offset(101)
	assert.False(t, ok)
}

func TestBuildDegenerate(t *testing.T) {
	p := testParams
	p.Bottom = 10
	l := newTestLayout(t, p)

	idx, err := l.Build([]byte("abc"))
	var derr *DegenerateError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 1, derr.Page)
	assert.Equal(t, 0, idx.Count())

	p.Bottom = 22
	l = newTestLayout(t, p)
	idx, err = l.Build([]byte("aaaaaaaaaa中"))
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 2, derr.Page)
	assert.Equal(t, 10, derr.Offset)
	assert.Equal(t, []int{0}, idx.Offsets())

	pg := l.Render([]byte("aaaaaaaaaa中"), 10)
	assert.Empty(t, pg.Lines)
	assert.Equal(t, 10, pg.Next)
}

func TestRenderPastEnd(t *testing.T) {
	l := newTestLayout(t, testParams)
	text := []byte("short")
	pg := l.Render(text, 5)
	assert.Empty(t, pg.Lines)
	assert.Equal(t, 5, pg.Next)
	pg = l.Render(text, 50)
	assert.Equal(t, 5, pg.Next)
}

func TestLegacyEncodingLayout(t *testing.T) {
	l, err := New(testParams, testMetrics, charset.LegacyDoubleByte)
	require.NoError(t, err)
	text := []byte{'a', 0xD6, 0xD0, 'b'}
	ln := l.fitLine(text, 0)
	assert.Equal(t, []Run{
		{Start: 0, End: 1, X: 0, Class: ClassByte},
		{Start: 1, End: 3, X: 10, Class: ClassMulti},
		{Start: 3, End: 4, X: 30, Class: ClassByte},
	}, ln.Runs)
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, testParams.Validate())

	bad := []func(p *Params){
		func(p *Params) { p.Width = 0 },
		func(p *Params) { p.Bottom = p.Top },
		func(p *Params) { p.ByteLineHeight = 0 },
		func(p *Params) { p.Indent = p.Width },
	}
	for i, mutate := range bad {
		p := testParams
		mutate(&p)
		assert.Error(t, p.Validate(), "case %d", i)
	}

	_, err := New(testParams, nil, charset.ByteOriented)
	assert.Error(t, err)
}

func TestFooterText(t *testing.T) {
	assert.Equal(t, "Page 3 / 12", FooterText(3, 12))
}
