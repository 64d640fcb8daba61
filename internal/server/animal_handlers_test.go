package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"refugio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (ta *testApp) createAnimal(t *testing.T, cookies []*http.Cookie, nombre string) models.Animal {
	t.Helper()
	req := withCookies(multipartReq(t, http.MethodPost, "/api/animales/", map[string]string{
		"nombre":           nombre,
		"fecha_nacimiento": "2021-04-15",
		"situacion":        "Rescatado de la calle",
	}), cookies)
	resp := ta.do(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var animal models.Animal
	decodeJSON(t, resp, &animal)
	require.NotZero(t, animal.ID)
	return animal
}

func TestAnimalWritesAreStaffOnly(t *testing.T) {
	ta := newTestApp(t)
	_, cookies := ta.signupAndLogin(t, "visitante")

	req := withCookies(multipartReq(t, http.MethodPost, "/api/animales/", map[string]string{
		"nombre":           "Intruso",
		"fecha_nacimiento": "2022-01-01",
	}), cookies)
	resp := ta.do(t, req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Without a session it is not even authenticated.
	resp = ta.do(t, multipartReq(t, http.MethodPost, "/api/animales/", map[string]string{
		"nombre": "Anonimo",
	}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAnimalCRUDAsStaff(t *testing.T) {
	ta := newTestApp(t)
	staff := ta.registerUser(t, "cuidador")
	ta.promote(t, staff.ID)
	cookies := ta.login(t, "cuidador")

	animal := ta.createAnimal(t, cookies, "Canela")
	assert.Positive(t, animal.Edad)

	// Public read, no session needed.
	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/api/animales/", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Animal
	decodeJSON(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Canela", list[0].Nombre)

	// Update.
	req := withCookies(multipartReq(t, http.MethodPut, "/api/animales/1", map[string]string{
		"nombre":           "Canela II",
		"fecha_nacimiento": "2021-04-15",
	}), cookies)
	resp = ta.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Animal
	decodeJSON(t, resp, &updated)
	assert.Equal(t, "Canela II", updated.Nombre)

	// Delete.
	resp = ta.do(t, withCookies(
		httptest.NewRequest(http.MethodDelete, "/api/animales/1", nil), cookies))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/animales/1", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateAnimalBadDateFormat(t *testing.T) {
	ta := newTestApp(t)
	staff := ta.registerUser(t, "cuidador")
	ta.promote(t, staff.ID)
	cookies := ta.login(t, "cuidador")

	req := withCookies(multipartReq(t, http.MethodPost, "/api/animales/", map[string]string{
		"nombre":           "Fecha",
		"fecha_nacimiento": "15/04/2021",
	}), cookies)
	resp := ta.do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "AAAA-MM-DD")
}

func TestGetAnimalBadID(t *testing.T) {
	ta := newTestApp(t)

	resp := ta.do(t, httptest.NewRequest(http.MethodGet, "/api/animales/abc", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
