package repository

import (
	"context"
	"testing"
	"time"

	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteByReportAndUser(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCommentRepository(db)
	owner := testutil.CreateUser(t, db, "owner", false)
	other := testutil.CreateUser(t, db, "other", false)
	first := testutil.CreateReport(t, db, owner, "first", "Roads", time.Now())
	second := testutil.CreateReport(t, db, owner, "second", "Roads", time.Now())
	ctx := context.Background()

	for _, c := range []entity.Comment{
		{ReportID: first.ID, UserID: owner.ID, Username: "owner", Text: "a"},
		{ReportID: first.ID, UserID: other.ID, Username: "other", Text: "b"},
		{ReportID: second.ID, UserID: other.ID, Username: "other", Text: "c"},
		{ReportID: second.ID, UserID: owner.ID, Username: "owner", Text: "d"},
	} {
		require.NoError(t, repo.Create(ctx, &c))
	}

	require.NoError(t, repo.DeleteByReportID(ctx, first.ID))
	left, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, left, 2)

	require.NoError(t, repo.DeleteByUserID(ctx, other.ID))
	left, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "d", left[0].Text)
}
