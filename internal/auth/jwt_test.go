package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/mentorship_hub/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken("secret", "hub", time.Minute, Claims{UserID: 7, Role: model.RoleMentor})
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, model.RoleMentor, claims.Role)
	assert.Equal(t, "7", claims.Subject)

	_, err = ParseToken("other", token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := NewAccessToken("secret", "hub", -time.Minute, Claims{UserID: 7})
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestIdentifyWithToken(t *testing.T) {
	id := NewIdentifier("secret")
	token, err := NewAccessToken("secret", "hub", time.Minute, Claims{UserID: 3, Role: model.RoleStudent})
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/bookings", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	actor, err := id.Identify(r)
	require.NoError(t, err)
	assert.Equal(t, int64(3), actor.UserID)

	r = httptest.NewRequest("GET", "/ws/notifications/3/?token="+token, nil)
	actor, err = id.Identify(r)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, actor.Role)

	r = httptest.NewRequest("GET", "/api/bookings", nil)
	r.Header.Set("X-User-Id", "3")
	_, err = id.Identify(r)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestIdentifyByHeadersInDevMode(t *testing.T) {
	id := NewIdentifier("")
	assert.False(t, id.Enabled())

	r := httptest.NewRequest("GET", "/api/bookings", nil)
	r.Header.Set("X-User-Id", "12")
	r.Header.Set("X-User-Role", "mentor")
	actor, err := id.Identify(r)
	require.NoError(t, err)
	assert.Equal(t, int64(12), actor.UserID)
	assert.Equal(t, model.RoleMentor, actor.Role)

	r = httptest.NewRequest("GET", "/ws/status/1/?user_id=4&role=student", nil)
	actor, err = id.Identify(r)
	require.NoError(t, err)
	assert.Equal(t, int64(4), actor.UserID)

	r = httptest.NewRequest("GET", "/api/bookings", nil)
	_, err = id.Identify(r)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
