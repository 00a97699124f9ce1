package deletion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"anoa.com/civicreport/internal/entity"
	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is shared by the fakes so tests can assert the exact call order.
type recorder struct {
	calls  []string
	failOn string
}

func (r *recorder) call(name string) error {
	r.calls = append(r.calls, name)
	if name == r.failOn {
		return errors.New("store unavailable")
	}
	return nil
}

type fakeReports struct {
	rec     *recorder
	reports map[uuid.UUID]entity.Report
}

func (f *fakeReports) FindByID(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	f.rec.calls = append(f.rec.calls, "reports.FindByID")
	report, ok := f.reports[id]
	if !ok {
		return nil, fmt.Errorf("report not found: %w", apperror.ErrNotFound)
	}
	return &report, nil
}

func (f *fakeReports) FindByUserID(ctx context.Context, userID uuid.UUID) ([]entity.Report, error) {
	if err := f.rec.call("reports.FindByUserID"); err != nil {
		return nil, err
	}
	var out []entity.Report
	for _, r := range f.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReports) Delete(ctx context.Context, id uuid.UUID) error {
	if err := f.rec.call("reports.Delete"); err != nil {
		return err
	}
	delete(f.reports, id)
	return nil
}

func (f *fakeReports) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if err := f.rec.call("reports.DeleteByUserID"); err != nil {
		return err
	}
	for id, r := range f.reports {
		if r.UserID == userID {
			delete(f.reports, id)
		}
	}
	return nil
}

type fakeComments struct {
	rec      *recorder
	comments []entity.Comment
}

func (f *fakeComments) DeleteByReportID(ctx context.Context, reportID uuid.UUID) error {
	if err := f.rec.call("comments.DeleteByReportID"); err != nil {
		return err
	}
	f.comments = filter(f.comments, func(c entity.Comment) bool { return c.ReportID != reportID })
	return nil
}

func (f *fakeComments) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	if err := f.rec.call("comments.DeleteByUserID"); err != nil {
		return err
	}
	f.comments = filter(f.comments, func(c entity.Comment) bool { return c.UserID != userID })
	return nil
}

func filter(in []entity.Comment, keep func(entity.Comment) bool) []entity.Comment {
	var out []entity.Comment
	for _, c := range in {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

type fakeUsers struct {
	rec   *recorder
	users map[uuid.UUID]entity.User
}

func (f *fakeUsers) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	f.rec.calls = append(f.rec.calls, "users.FindByID")
	user, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user not found: %w", apperror.ErrNotFound)
	}
	return &user, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id uuid.UUID) error {
	if err := f.rec.call("users.Delete"); err != nil {
		return err
	}
	delete(f.users, id)
	return nil
}

type fakeImages struct {
	rec     *recorder
	single  []string
	batches [][]string
}

func (f *fakeImages) DeleteImage(ctx context.Context, publicID string) error {
	if err := f.rec.call("images.DeleteImage"); err != nil {
		return err
	}
	f.single = append(f.single, publicID)
	return nil
}

func (f *fakeImages) DeleteImages(ctx context.Context, publicIDs []string) error {
	if err := f.rec.call("images.DeleteImages"); err != nil {
		return err
	}
	f.batches = append(f.batches, publicIDs)
	return nil
}

type fixture struct {
	rec      *recorder
	reports  *fakeReports
	comments *fakeComments
	users    *fakeUsers
	images   *fakeImages
	svc      Service

	owner    entity.User
	stranger entity.User
	admin    entity.User
}

func strPtr(s string) *string { return &s }

func newFixture() *fixture {
	rec := &recorder{}
	f := &fixture{
		rec:      rec,
		reports:  &fakeReports{rec: rec, reports: map[uuid.UUID]entity.Report{}},
		comments: &fakeComments{rec: rec},
		users:    &fakeUsers{rec: rec, users: map[uuid.UUID]entity.User{}},
		images:   &fakeImages{rec: rec},
	}
	f.svc = NewService(f.reports, f.comments, f.users, f.images)

	f.owner = entity.User{ID: uuid.New(), Username: "owner"}
	f.stranger = entity.User{ID: uuid.New(), Username: "stranger"}
	f.admin = entity.User{ID: uuid.New(), Username: "admin", IsAdmin: true}
	for _, u := range []entity.User{f.owner, f.stranger, f.admin} {
		f.users.users[u.ID] = u
	}
	return f
}

func (f *fixture) addReport(owner uuid.UUID, publicID *string) entity.Report {
	r := entity.Report{ID: uuid.New(), UserID: owner, Title: "pothole", Image: entity.Image{URL: "https://img", PublicID: publicID}}
	f.reports.reports[r.ID] = r
	return r
}

func (f *fixture) addComment(reportID, userID uuid.UUID) {
	f.comments.comments = append(f.comments.comments, entity.Comment{ID: uuid.New(), ReportID: reportID, UserID: userID})
}

func claimsFor(u entity.User) *token.Claims {
	return &token.Claims{UserID: u.ID, IsAdmin: u.IsAdmin}
}

func TestDeleteReport_Cascade(t *testing.T) {
	f := newFixture()
	report := f.addReport(f.owner.ID, strPtr("reports/pothole"))
	other := f.addReport(f.owner.ID, strPtr("reports/other"))
	f.addComment(report.ID, f.stranger.ID)
	f.addComment(report.ID, f.owner.ID)
	f.addComment(other.ID, f.stranger.ID)

	res, err := f.svc.DeleteReport(context.Background(), report.ID, claimsFor(f.owner))
	require.NoError(t, err)

	assert.Equal(t, report.ID, res.ReportID)
	assert.Equal(t, []string{
		"reports.FindByID",
		"reports.Delete",
		"images.DeleteImage",
		"comments.DeleteByReportID",
	}, f.rec.calls)
	assert.NotContains(t, f.reports.reports, report.ID)
	assert.Contains(t, f.reports.reports, other.ID)
	assert.Equal(t, []string{"reports/pothole"}, f.images.single)
	require.Len(t, f.comments.comments, 1)
	assert.Equal(t, other.ID, f.comments.comments[0].ReportID)
}

func TestDeleteReport_AdminMayDelete(t *testing.T) {
	f := newFixture()
	report := f.addReport(f.owner.ID, strPtr("reports/pothole"))

	_, err := f.svc.DeleteReport(context.Background(), report.ID, claimsFor(f.admin))
	require.NoError(t, err)
	assert.Empty(t, f.reports.reports)
}

func TestDeleteReport_Denied(t *testing.T) {
	f := newFixture()
	report := f.addReport(f.owner.ID, strPtr("reports/pothole"))

	_, err := f.svc.DeleteReport(context.Background(), report.ID, claimsFor(f.stranger))
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Equal(t, []string{"reports.FindByID"}, f.rec.calls)
	assert.Contains(t, f.reports.reports, report.ID)

	_, err = f.svc.DeleteReport(context.Background(), report.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestDeleteReport_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.DeleteReport(context.Background(), uuid.New(), claimsFor(f.admin))
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "report not found", apperror.Message(err))
}

func TestDeleteReport_SkipsMissingImage(t *testing.T) {
	f := newFixture()
	report := f.addReport(f.owner.ID, nil)

	_, err := f.svc.DeleteReport(context.Background(), report.ID, claimsFor(f.owner))
	require.NoError(t, err)
	assert.NotContains(t, f.rec.calls, "images.DeleteImage")
}

func TestDeleteReport_StepFailureKeepsPriorEffects(t *testing.T) {
	f := newFixture()
	report := f.addReport(f.owner.ID, strPtr("reports/pothole"))
	f.addComment(report.ID, f.owner.ID)
	f.rec.failOn = "images.DeleteImage"

	_, err := f.svc.DeleteReport(context.Background(), report.ID, claimsFor(f.owner))
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, OpDeleteReport, stepErr.Operation)
	assert.Equal(t, StepReleaseReportImage, stepErr.Step)
	assert.ErrorIs(t, err, apperror.ErrUpstream)
	assert.Equal(t, 500, apperror.MapErrorToStatus(err))

	// the record is gone but the comments were never reached
	assert.NotContains(t, f.reports.reports, report.ID)
	assert.Len(t, f.comments.comments, 1)
	assert.NotContains(t, f.rec.calls, "comments.DeleteByReportID")
}

func TestDeleteUser_Cascade(t *testing.T) {
	f := newFixture()
	photo := strPtr("profiles/owner")
	owner := f.users.users[f.owner.ID]
	owner.ProfilePhoto = entity.Image{URL: "https://img/owner", PublicID: photo}
	f.users.users[f.owner.ID] = owner

	r1 := f.addReport(f.owner.ID, strPtr("reports/one"))
	r2 := f.addReport(f.owner.ID, strPtr("reports/two"))
	f.addReport(f.owner.ID, nil)
	foreign := f.addReport(f.stranger.ID, strPtr("reports/foreign"))
	f.addComment(foreign.ID, f.owner.ID)
	f.addComment(foreign.ID, f.stranger.ID)
	f.addComment(r1.ID, f.owner.ID)

	res, err := f.svc.DeleteUser(context.Background(), f.owner.ID, claimsFor(f.owner))
	require.NoError(t, err)

	assert.Equal(t, f.owner.ID, res.UserID)
	assert.Len(t, res.ReportIDs, 3)
	assert.Contains(t, res.ReportIDs, r1.ID)
	assert.Contains(t, res.ReportIDs, r2.ID)

	assert.Equal(t, []string{
		"users.FindByID",
		"reports.FindByUserID",
		"images.DeleteImages",
		"images.DeleteImage",
		"reports.DeleteByUserID",
		"comments.DeleteByUserID",
		"users.Delete",
	}, f.rec.calls)

	require.Len(t, f.images.batches, 1)
	assert.ElementsMatch(t, []string{"reports/one", "reports/two"}, f.images.batches[0])
	assert.Equal(t, []string{"profiles/owner"}, f.images.single)

	assert.Len(t, f.reports.reports, 1)
	assert.Contains(t, f.reports.reports, foreign.ID)
	for _, c := range f.comments.comments {
		assert.NotEqual(t, f.owner.ID, c.UserID)
	}
	assert.NotContains(t, f.users.users, f.owner.ID)
}

func TestDeleteUser_NoReportsNoBatchCall(t *testing.T) {
	f := newFixture()

	_, err := f.svc.DeleteUser(context.Background(), f.owner.ID, claimsFor(f.owner))
	require.NoError(t, err)

	assert.NotContains(t, f.rec.calls, "images.DeleteImages")
	// default photo has no public id, so nothing is released
	assert.NotContains(t, f.rec.calls, "images.DeleteImage")
	assert.NotContains(t, f.users.users, f.owner.ID)
}

func TestDeleteUser_Authorization(t *testing.T) {
	f := newFixture()

	_, err := f.svc.DeleteUser(context.Background(), f.owner.ID, claimsFor(f.stranger))
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	assert.Contains(t, f.users.users, f.owner.ID)

	_, err = f.svc.DeleteUser(context.Background(), f.owner.ID, claimsFor(f.admin))
	require.NoError(t, err)
	assert.NotContains(t, f.users.users, f.owner.ID)
}

func TestDeleteUser_StepFailures(t *testing.T) {
	steps := map[string]string{
		"reports.FindByUserID":    StepLoadUserReports,
		"images.DeleteImages":     StepReleaseReportImages,
		"images.DeleteImage":      StepReleaseProfilePhoto,
		"reports.DeleteByUserID":  StepDeleteUserReports,
		"comments.DeleteByUserID": StepDeleteUserComments,
		"users.Delete":            StepDeleteUserRecord,
	}

	for call, step := range steps {
		t.Run(step, func(t *testing.T) {
			f := newFixture()
			owner := f.users.users[f.owner.ID]
			owner.ProfilePhoto.PublicID = strPtr("profiles/owner")
			f.users.users[f.owner.ID] = owner
			f.addReport(f.owner.ID, strPtr("reports/one"))
			f.rec.failOn = call

			_, err := f.svc.DeleteUser(context.Background(), f.owner.ID, claimsFor(f.owner))

			var stepErr *StepError
			require.ErrorAs(t, err, &stepErr)
			assert.Equal(t, OpDeleteUser, stepErr.Operation)
			assert.Equal(t, step, stepErr.Step)
			assert.Equal(t, call, f.rec.calls[len(f.rec.calls)-1], "no step runs after the failure")
		})
	}
}
