package importer

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/kevinaaaquil/yamdb/apperr"
	"github.com/kevinaaaquil/yamdb/models"
	"github.com/kevinaaaquil/yamdb/store"
	"github.com/kevinaaaquil/yamdb/store/memory"
	"github.com/kevinaaaquil/yamdb/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func fixtures() fstest.MapFS {
	file := func(s string) *fstest.MapFile { return &fstest.MapFile{Data: []byte(s)} }
	return fstest.MapFS{
		UsersFile: file("id,username,email,role,bio,first_name,last_name\n" +
			"100,bingobongo,bingobongo@yamdb.fake,user,,,\n" +
			"101,capt_obvious,capt_obvious@yamdb.fake,admin,,Captain,Obvious\n" +
			"102,faust,faust@yamdb.fake,moderator,\"writes, a lot\",,\n"),
		CategoryFile: file("id,name,slug\n1,Фильм,movie\n2,Книга,book\n"),
		GenreFile:    file("id,name,slug\n1,Драма,drama\n2,Комедия,comedy\n"),
		GenreTitleFile: file("id,title_id,genre_id\n" +
			"1,1,1\n2,1,2\n3,2,1\n"),
		TitlesFile: file("id,name,year,category\n" +
			"1,Побег из Шоушенка,1994,1\n" +
			"2,Крестный отец,1972,1\n" +
			"3,Generation П,1999,\n"),
		ReviewFile: file("id,title_id,text,author,score,pub_date\n" +
			"1,1,Ставлю десять звёзд!,100,10,2019-09-24T21:08:21.567Z\n" +
			"2,1,Не понравилось,102,5,2019-09-25T10:00:00Z\n"),
		CommentsFile: file("id,review_id,text,author,pub_date\n" +
			"1,1,Согласен,102,2019-09-26T09:00:00Z\n"),
	}
}

func newImporter(st store.Store, fsys fstest.MapFS) *Importer {
	return New(st, FSSource{FS: fsys}, validation.NewWithClock(func() time.Time { return fixedNow }))
}

func TestRun_ImportsFixturesInOrder(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	stats, err := newImporter(st, fixtures()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		UsersFile: 3, CategoryFile: 2, GenreFile: 2, GenreTitleFile: 3,
		TitlesFile: 3, ReviewFile: 2, CommentsFile: 1,
	}, stats)

	admin, err := st.UserByUsername(ctx, "capt_obvious")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "Captain", admin.FirstName)
	faust, err := st.UserByUsername(ctx, "faust")
	require.NoError(t, err)
	assert.Equal(t, "writes, a lot", faust.Bio)

	titles, total, err := st.ListTitles(ctx, store.TitleFilter{Ordering: store.OrderRatingDesc})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	shawshank := titles[0]
	assert.Equal(t, "Побег из Шоушенка", shawshank.Name)
	require.NotNil(t, shawshank.Rating)
	assert.InDelta(t, 7.5, *shawshank.Rating, 1e-9)
	require.NotNil(t, shawshank.Category)
	assert.Equal(t, "movie", shawshank.Category.Slug)
	assert.Len(t, shawshank.Genres, 2)

	reviews, _, err := st.ListReviews(ctx, shawshank.ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "faust", reviews[0].Author)
	assert.Equal(t, time.Date(2019, 9, 24, 21, 8, 21, 567000000, time.UTC), reviews[1].PubDate)

	comments, _, err := st.ListComments(ctx, reviews[1].ID, store.Page{})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Согласен", comments[0].Text)

	var uncategorized *models.Title
	for i := range titles {
		if titles[i].Name == "Generation П" {
			uncategorized = &titles[i]
		}
	}
	require.NotNil(t, uncategorized)
	assert.Nil(t, uncategorized.Category)
	assert.Nil(t, uncategorized.Rating)
}

func TestRun_SkipsMissingFiles(t *testing.T) {
	fsys := fixtures()
	delete(fsys, CommentsFile)
	delete(fsys, GenreTitleFile)

	stats, err := newImporter(memory.New(), fsys).Run(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, stats, CommentsFile)
	assert.Equal(t, 3, stats[TitlesFile])
}

func TestRun_RejectsInvalidRows(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
		kind    apperr.Kind
	}{
		{
			name:    "reserved username",
			file:    UsersFile,
			content: "id,username,email,role\n1,me,me@yamdb.fake,user\n",
			wantErr: "users.csv:2",
			kind:    apperr.KindReservedUsername,
		},
		{
			name:    "future year",
			file:    TitlesFile,
			content: "id,name,year,category\n9,Tomorrow,2030,1\n",
			wantErr: "titles.csv:2",
			kind:    apperr.KindInvalidYear,
		},
		{
			name:    "score out of range",
			file:    ReviewFile,
			content: "id,title_id,text,author,score,pub_date\n9,1,Too good,100,11,2019-09-24T21:08:21Z\n",
			wantErr: "review.csv:2",
			kind:    apperr.KindInvalidScore,
		},
		{
			name:    "unknown category",
			file:    TitlesFile,
			content: "id,name,year,category\n9,Lost,2000,42\n",
			wantErr: `unknown category id "42"`,
		},
		{
			name:    "bad slug",
			file:    GenreFile,
			content: "id,name,slug\n9,Bad,not a slug\n",
			wantErr: "invalid genre slug",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fixtures()
			fsys[tt.file] = &fstest.MapFile{Data: []byte(tt.content)}
			_, err := newImporter(memory.New(), fsys).Run(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.kind != "" {
				assert.Equal(t, tt.kind, apperr.KindOf(err))
			}
		})
	}
}

func TestRun_DuplicateReviewAborts(t *testing.T) {
	fsys := fixtures()
	fsys[ReviewFile] = &fstest.MapFile{Data: []byte("id,title_id,text,author,score,pub_date\n" +
		"1,1,first,100,7,2019-09-24T21:08:21Z\n" +
		"2,1,second,100,8,2019-09-24T22:08:21Z\n")}

	_, err := newImporter(memory.New(), fsys).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.Contains(t, err.Error(), "review.csv:3")
}
