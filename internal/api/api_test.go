package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierrors "ats-client/internal/common/errors"
	"ats-client/internal/common/transport"
	"ats-client/internal/models"
)

func newTestTransport(t *testing.T, handler http.Handler) *transport.Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return transport.NewClient(server.URL, 5*time.Second)
}

// ==========================
// AuthClient
// ==========================

func TestAuthClient_LoginSuccess(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ops", body["userid"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"token":   "tok-1",
			"user":    map[string]string{"userid": "ops", "role": "admin"},
		})
	}))

	result, err := NewAuthClient(tr).Login(context.Background(), "ops", "secret")

	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.Equal(t, "admin", result.Principal.Role)
}

func TestAuthClient_LoginRejection(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Invalid credentials",
		})
	}))

	_, err := NewAuthClient(tr).Login(context.Background(), "ops", "wrong")

	require.Error(t, err)
	ce := clierrors.AsClientError(err)
	assert.Equal(t, clierrors.KindAuth, ce.Kind)
	assert.Equal(t, "Invalid credentials", ce.Message)
	assert.False(t, ce.Retryable)
}

func TestAuthClient_LoginTimeoutIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)
	tr := transport.NewClient(server.URL, 20*time.Millisecond)

	_, err := NewAuthClient(tr).Login(context.Background(), "ops", "secret")

	require.Error(t, err)
	assert.True(t, clierrors.IsRetryable(err))
}

func TestAuthClient_VerifySendsBearerToken(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-9" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Token invalid"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"user":    map[string]string{"userid": "ops", "role": "user"},
		})
	}))
	client := NewAuthClient(tr)

	_, err := client.Verify(context.Background())
	require.Error(t, err)
	assert.True(t, clierrors.IsKind(err, clierrors.KindAuth))

	tr.SetBearerToken("tok-9")
	principal, err := client.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ops", principal.ID)
}

// ==========================
// RecordsClient
// ==========================

func TestRecordsClient_List(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/applicants", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{"id": "1", "fullName": "Alice", "status": "Applied", "dateOfApplication": "2024-02-10T00:00:00Z"},
			},
		})
	}))

	records, err := NewRecordsClient(tr).List(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Alice", records[0].FullName)
}

func TestRecordsClient_CreateSurfacesFieldErrors(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Validation failed",
			"errors": []map[string]string{
				{"path": "email", "msg": "invalid email"},
				{"path": "fullName", "msg": "required"},
			},
		})
	}))

	_, err := NewRecordsClient(tr).Create(context.Background(), models.ApplicantFields{}, nil)

	require.Error(t, err)
	ce := clierrors.AsClientError(err)
	assert.Equal(t, clierrors.KindValidation, ce.Kind)
	require.Len(t, ce.Fields, 2)
	assert.Equal(t, "email", ce.Fields[0].Field)
	assert.Equal(t, "invalid email", ce.Fields[0].Message)
}

func TestRecordsClient_CreateSendsMultipart(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Alice", r.FormValue("fullName"))
		assert.Equal(t, "2024-02-10", r.FormValue("dateOfApplication"))

		file, header, err := r.FormFile("resume")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cv.pdf", header.Filename)
		content, _ := io.ReadAll(file)
		assert.Equal(t, "resume-bytes", string(content))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"id": "9", "fullName": "Alice", "status": "Applied"},
		})
	}))

	fields := models.ApplicantFields{
		FullName:          "Alice",
		Email:             "alice@example.com",
		Position:          "QA Engineer",
		Company:           "Acme",
		Location:          "Pune",
		Status:            models.StatusApplied,
		DateOfApplication: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	}
	resume := &models.ResumeUpload{Filename: "cv.pdf", Content: []byte("resume-bytes")}

	record, err := NewRecordsClient(tr).Create(context.Background(), fields, resume)

	require.NoError(t, err)
	assert.Equal(t, "9", record.ID)
}

func TestRecordsClient_DeleteCarriesAdminPassword(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/applicants/42", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hunter2", body["adminPassword"])

		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))

	err := NewRecordsClient(tr).Delete(context.Background(), "42", "hunter2")
	require.NoError(t, err)
}

func TestRecordsClient_ExportPassesCriteriaAndStreams(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/applicants/export", r.URL.Path)
		assert.Equal(t, "Hired", r.URL.Query().Get("status"))
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("interviewDate"))
		w.Write([]byte("xlsx-bytes"))
	}))

	params := url.Values{}
	params.Set("status", "Hired")
	params.Set("interviewDate", "2024-03-01")

	stream, err := NewRecordsClient(tr).Export(context.Background(), params)
	require.NoError(t, err)
	defer stream.Close()

	content, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "xlsx-bytes", string(content))
}

func TestRecordsClient_ServerErrorIsNotValidation(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "boom"})
	}))

	_, err := NewRecordsClient(tr).List(context.Background())

	require.Error(t, err)
	assert.True(t, clierrors.IsKind(err, clierrors.KindServer))
	assert.False(t, clierrors.IsRetryable(err))
}

// ==========================
// Presets / Users
// ==========================

func TestPresetsClient_Lists(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/companies":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"companies": []map[string]string{{"id": "c1", "companyName": "Acme"}}},
			})
		case "/positions":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"positions": []map[string]string{{"id": "p1", "positionName": "QA Engineer"}}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	client := NewPresetsClient(tr)

	companies, err := client.Companies(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].CompanyName)

	positions, err := client.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "QA Engineer", positions[0].PositionName)
}

func TestPresetsClient_CreateCompany(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/companies", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Globex", body["companyName"])

		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))

	err := NewPresetsClient(tr).CreateCompany(context.Background(), "Globex")
	require.NoError(t, err)
}

func TestPresetsClient_UpdatePosition(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/positions/p1", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "SRE", body["positionName"])

		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))

	err := NewPresetsClient(tr).UpdatePosition(context.Background(), "p1", "SRE")
	require.NoError(t, err)
}

func TestPresetsClient_DeleteCompanyRejectionSurfaces(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/companies/c1", r.URL.Path)
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "Admin access required"})
	}))

	err := NewPresetsClient(tr).DeleteCompany(context.Background(), "c1")

	require.Error(t, err)
	ce := clierrors.AsClientError(err)
	assert.Equal(t, clierrors.KindAuth, ce.Kind)
	assert.Equal(t, "Admin access required", ce.Message)
}

func TestUsersClient_List(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    []map[string]string{{"userid": "ops", "role": "admin"}},
		})
	}))

	users, err := NewUsersClient(tr).List(context.Background())

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Role)
}

func TestUsersClient_Create(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/users", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "viewer", body["userid"])
		assert.Equal(t, "s3cret", body["password"])
		assert.Equal(t, "user", body["role"])

		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))

	err := NewUsersClient(tr).Create(context.Background(), "viewer", "s3cret", "user")
	require.NoError(t, err)
}

func TestUsersClient_UpdateOmitsEmptyPassword(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/users/viewer", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin", body["role"])
		_, hasPassword := body["password"]
		assert.False(t, hasPassword, "a blank password means keep the current one")

		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))

	err := NewUsersClient(tr).Update(context.Background(), "viewer", "", "admin")
	require.NoError(t, err)
}

func TestUsersClient_Delete(t *testing.T) {
	tr := newTestTransport(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/users/viewer", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))

	err := NewUsersClient(tr).Delete(context.Background(), "viewer")
	require.NoError(t, err)
}
