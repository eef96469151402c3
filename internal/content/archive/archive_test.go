package archive_test

import (
	"testing"
	"time"

	"github.com/Gogfather/thegogfather.com/internal/content/archive"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photoAt(id string, ts time.Time) model.Record {
	return model.Record{
		ID:         id,
		Collection: model.CollectionPhotos,
		CreatedAt:  ts,
		Fields:     map[string]interface{}{"url": "http://x/" + id, "caption": id},
	}
}

func TestGroupByDate_YearsDescendingMonthsEncounterOrder(t *testing.T) {
	photos := []model.Record{
		photoAt("p1", time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)),
		photoAt("p2", time.Date(2026, time.January, 20, 0, 0, 0, 0, time.UTC)),
		photoAt("p3", time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)),
		photoAt("p4", time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)),
	}

	groups := archive.GroupByDate(photos)

	require.Len(t, groups, 2)
	assert.Equal(t, "2026", groups[0].Year)
	assert.Equal(t, "2025", groups[1].Year)

	// March was encountered before January; that order is preserved.
	require.Len(t, groups[0].Months, 2)
	assert.Equal(t, "March", groups[0].Months[0].Name)
	assert.Equal(t, "January", groups[0].Months[1].Name)

	require.Len(t, groups[0].Months[0].Photos, 2)
	assert.Equal(t, "p1", groups[0].Months[0].Photos[0].ID)
	assert.Equal(t, "p3", groups[0].Months[0].Photos[1].ID)

	require.Len(t, groups[1].Months, 1)
	assert.Equal(t, "December", groups[1].Months[0].Name)
}

func TestGroupByDate_ZeroTimestampsExcluded(t *testing.T) {
	photos := []model.Record{
		photoAt("valid", time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)),
		photoAt("no-timestamp", time.Time{}),
	}

	groups := archive.GroupByDate(photos)

	require.Len(t, groups, 1)
	require.Len(t, groups[0].Months, 1)
	require.Len(t, groups[0].Months[0].Photos, 1)
	assert.Equal(t, "valid", groups[0].Months[0].Photos[0].ID)
}

func TestGroupByDate_Empty(t *testing.T) {
	assert.Empty(t, archive.GroupByDate(nil))
	assert.Empty(t, archive.GroupByDate([]model.Record{}))
}

func TestGroupByDate_EachPhotoInExactlyOneBucket(t *testing.T) {
	photos := []model.Record{
		photoAt("a", time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)),
		photoAt("b", time.Date(2026, time.May, 2, 0, 0, 0, 0, time.UTC)),
		photoAt("c", time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)),
	}

	groups := archive.GroupByDate(photos)

	seen := map[string]int{}
	for _, year := range groups {
		for _, month := range year.Months {
			for _, p := range month.Photos {
				seen[p.ID]++
			}
		}
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, seen)
}
