package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/placeresolve/internal/place"
)

func TestReadCSV_TakeoutExport(t *testing.T) {
	t.Parallel()

	in := `Title,Note,URL,Comment
Eiffel Tower,See at night,https://maps.example/?q=eiffel,
Blue Bottle,"Great coffee, get a flat white",https://maps.example/?q=bluebottle,cash only
Grandma's house,,,childhood home
`
	records, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, 0, records[0].Index)
	assert.Equal(t, "Eiffel Tower", records[0].Name)
	assert.Equal(t, "See at night", records[0].Note)
	assert.Equal(t, "https://maps.example/?q=eiffel", records[0].Locator)

	assert.Equal(t, "Great coffee, get a flat white", records[1].Note)
	assert.Equal(t, "cash only", records[1].Comment)

	assert.Equal(t, "Grandma's house", records[2].Name)
	assert.Empty(t, records[2].Locator, "rows without a URL fall back to name search")

	for _, r := range records {
		assert.True(t, r.NeedsLookup(), "takeout CSVs never carry coordinates")
		assert.Equal(t, place.StatusUnresolved, r.Status)
	}
}

func TestReadCSV_HeaderCaseInsensitive(t *testing.T) {
	t.Parallel()

	in := "TITLE,url\nSomewhere,https://maps.example/?q=x\n"
	records, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Somewhere", records[0].Name)
	assert.Equal(t, "https://maps.example/?q=x", records[0].Locator)
}

func TestReadCSV_CommentLines(t *testing.T) {
	t.Parallel()

	in := "Title,URL\n# exported 2024-05-01\nSomewhere,https://maps.example/?q=x\n"
	records, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReadCSV_ShortRows(t *testing.T) {
	t.Parallel()

	in := "Title,Note,URL,Comment\nJust a name\n"
	records, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Just a name", records[0].Name)
	assert.Empty(t, records[0].Locator)
}

func TestReadCSV_MissingTitleColumn(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader("URL\nhttps://x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title")
}

func TestReadCSV_Empty(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader(""))
	require.Error(t, err)
}
