package models

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnimalAgeAt(t *testing.T) {
	t.Parallel()

	born := time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC)
	animal := Animal{FechaNacimiento: born}

	// Day before the birthday the year has not completed yet.
	assert.Equal(t, 2, animal.AgeAt(time.Date(2023, time.June, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, animal.AgeAt(time.Date(2023, time.June, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, animal.AgeAt(time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)))

	// Never negative, even with clock skew.
	assert.Equal(t, 0, animal.AgeAt(time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCommentTiempoTranscurrido(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	comment := Comment{FechaHora: base}

	tests := []struct {
		elapsed time.Duration
		want    string
	}{
		{45 * time.Second, "45s"},
		{3 * time.Minute, "3m"},
		{2 * time.Hour, "2h"},
		{5 * 24 * time.Hour, "5d"},
		{40 * 24 * time.Hour, "1mo"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, comment.TiempoTranscurrido(base.Add(tt.elapsed)))
	}
}

func TestAdoptionStatusValid(t *testing.T) {
	t.Parallel()

	assert.True(t, AdoptionStatusPending.Valid())
	assert.True(t, AdoptionStatusAccepted.Valid())
	assert.True(t, AdoptionStatusRejected.Valid())
	assert.False(t, AdoptionStatus("Cancelada").Valid())
	assert.False(t, AdoptionStatus("").Valid())
}

func TestUserDisplayName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "María", (&User{Username: "mgarcia", FirstName: "María"}).DisplayName())
	assert.Equal(t, "mgarcia", (&User{Username: "mgarcia"}).DisplayName())
}

func TestErrorResponseHidesWrappedCause(t *testing.T) {
	t.Parallel()

	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return RespondWithError(c, fiber.StatusInternalServerError,
			NewInternalError(errors.New("dial tcp 10.0.0.5:5432: connection refused")))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Internal server error")
	assert.Contains(t, string(body), CodeInternal)
	assert.NotContains(t, string(body), "dial tcp", "driver errors stay out of responses")
	assert.NotContains(t, string(body), "details")
}

func TestAppErrorUnwrap(t *testing.T) {
	t.Parallel()

	inner := assert.AnError
	err := NewUpstreamError("smtp", inner)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, CodeUpstreamFailure, err.Code)

	rl := NewRateLimitedError("3min 20s")
	assert.Equal(t, "Too many requests. Try again in 3min 20s.", rl.Message)
}
