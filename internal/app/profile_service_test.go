package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kaleidoscope/internal/domain"
)

// -- Fake image host ---------------------------------------------------------

type fakeUploader struct {
	uploads int
	deleted []string
}

func (f *fakeUploader) Upload(_ context.Context, _ []byte) (string, string, error) {
	f.uploads++
	return fmt.Sprintf("https://i.ibb.co/img%d.png", f.uploads),
		fmt.Sprintf("https://ibb.co/delete/img%d", f.uploads), nil
}

func (f *fakeUploader) Delete(_ context.Context, deleteURL string) error {
	f.deleted = append(f.deleted, deleteURL)
	return nil
}

func newTestProfileService() (*ProfileService, *memProfiles, *fakeUploader) {
	profiles := newMemProfiles()
	uploader := &fakeUploader{}
	svc := NewProfileService(profiles, uploader, zap.NewNop())
	return svc, profiles, uploader
}

func seedProfile(t *testing.T, profiles *memProfiles, userID, handle, displayName string) {
	t.Helper()
	require.NoError(t, profiles.Create(context.Background(), &domain.Profile{
		UserID:      userID,
		Handle:      handle,
		DisplayName: displayName,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}))
}

// -- Tests -------------------------------------------------------------------

func TestPublicProfile_LookupOrder(t *testing.T) {
	svc, profiles, _ := newTestProfileService()
	seedProfile(t, profiles, "u1", "jamie", "Jamie D")

	// By user id.
	p, err := svc.PublicProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "jamie", p.Handle)

	// By handle, case-insensitively.
	p, err = svc.PublicProfile(context.Background(), "JAMIE")
	require.NoError(t, err)
	assert.Equal(t, "jamie", p.Handle)

	// By display name as the last resort.
	p, err = svc.PublicProfile(context.Background(), "Jamie D")
	require.NoError(t, err)
	assert.Equal(t, "jamie", p.Handle)

	_, err = svc.PublicProfile(context.Background(), "nobody")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestPublicProfile_TagsNeverNull(t *testing.T) {
	svc, profiles, _ := newTestProfileService()
	seedProfile(t, profiles, "u1", "jamie", "Jamie D")

	p, err := svc.PublicProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, p.Tags)
}

func TestUpdateProfile_SanitizesFreeText(t *testing.T) {
	svc, profiles, _ := newTestProfileService()
	seedProfile(t, profiles, "u1", "jamie", "Jamie D")

	bio := `<script>alert(1)</script> music fan, javascript:void links, onclick= nothing`
	name := `<b>Jamie</b>`
	updated, err := svc.UpdateProfile(context.Background(), "u1", domain.ProfileUpdate{
		Bio:         &bio,
		DisplayName: &name,
	})
	require.NoError(t, err)
	assert.NotContains(t, updated.Bio, "<script>")
	assert.NotContains(t, updated.Bio, "javascript:")
	assert.NotContains(t, updated.Bio, "onclick=")
	assert.Equal(t, "Jamie", updated.DisplayName)
}

func TestUpdateProfile_HandleRules(t *testing.T) {
	svc, profiles, _ := newTestProfileService()
	seedProfile(t, profiles, "u1", "jamie", "Jamie D")
	seedProfile(t, profiles, "u2", "taken", "Other")

	bad := "no spaces"
	_, err := svc.UpdateProfile(context.Background(), "u1", domain.ProfileUpdate{Handle: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidHandle)

	taken := "taken"
	_, err = svc.UpdateProfile(context.Background(), "u1", domain.ProfileUpdate{Handle: &taken})
	assert.ErrorIs(t, err, domain.ErrHandleTaken)

	// Re-submitting one's own handle is not a conflict.
	same := "Jamie"
	updated, err := svc.UpdateProfile(context.Background(), "u1", domain.ProfileUpdate{Handle: &same})
	require.NoError(t, err)
	assert.Equal(t, "jamie", updated.Handle)

	fresh := "new-handle_1"
	updated, err = svc.UpdateProfile(context.Background(), "u1", domain.ProfileUpdate{Handle: &fresh})
	require.NoError(t, err)
	assert.Equal(t, "new-handle_1", updated.Handle)
}

func TestSetAvatar_UploadsAndReplaces(t *testing.T) {
	svc, profiles, uploader := newTestProfileService()
	seedProfile(t, profiles, "u1", "jamie", "Jamie D")

	image := base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	updated, err := svc.SetAvatar(context.Background(), "u1", image)
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/img1.png", updated.AvatarURL)
	assert.Empty(t, uploader.deleted)

	// A data-URL payload is accepted, and the old image gets deleted.
	updated, err = svc.SetAvatar(context.Background(), "u1", "data:image/png;base64,"+image)
	require.NoError(t, err)
	assert.Equal(t, "https://i.ibb.co/img2.png", updated.AvatarURL)
	assert.Equal(t, []string{"https://ibb.co/delete/img1"}, uploader.deleted)
}

func TestSetAvatar_RejectsBadEncoding(t *testing.T) {
	svc, profiles, uploader := newTestProfileService()
	seedProfile(t, profiles, "u1", "jamie", "Jamie D")

	_, err := svc.SetAvatar(context.Background(), "u1", "!!! not base64 !!!")
	require.Error(t, err)
	assert.Zero(t, uploader.uploads)
}

func TestRemoveAvatar_ClearsAndDeletes(t *testing.T) {
	svc, profiles, uploader := newTestProfileService()
	seedProfile(t, profiles, "u1", "jamie", "Jamie D")

	image := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	_, err := svc.SetAvatar(context.Background(), "u1", image)
	require.NoError(t, err)

	updated, err := svc.RemoveAvatar(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, updated.AvatarURL)
	assert.Equal(t, []string{"https://ibb.co/delete/img1"}, uploader.deleted)

	// Removing an absent avatar is a no-op, not an error.
	_, err = svc.RemoveAvatar(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Len(t, uploader.deleted, 1)
}
