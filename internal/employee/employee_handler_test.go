package employee_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-employee-directory/internal/employee"
	employeeerrors "go-employee-directory/internal/employee/errors"
	"go-employee-directory/internal/photostore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmployeeService struct {
	ListFn       func(ctx context.Context) ([]employee.EmployeeResponse, error)
	DetailsFn    func(ctx context.Context, token string) (employee.EmployeeResponse, error)
	CreateFn     func(ctx context.Context, req employee.CreateEmployeeRequest, photo *photostore.Upload) (employee.EmployeeResponse, error)
	GetForEditFn func(ctx context.Context, id int) (employee.EmployeeEditResponse, error)
	UpdateFn     func(ctx context.Context, id int, req employee.UpdateEmployeeRequest, photo *photostore.Upload) (employee.EmployeeResponse, error)
	DeleteFn     func(ctx context.Context, id int) error
}

func (f *fakeEmployeeService) List(ctx context.Context) ([]employee.EmployeeResponse, error) {
	return f.ListFn(ctx)
}
func (f *fakeEmployeeService) Details(ctx context.Context, token string) (employee.EmployeeResponse, error) {
	return f.DetailsFn(ctx, token)
}
func (f *fakeEmployeeService) Create(ctx context.Context, req employee.CreateEmployeeRequest, photo *photostore.Upload) (employee.EmployeeResponse, error) {
	return f.CreateFn(ctx, req, photo)
}
func (f *fakeEmployeeService) GetForEdit(ctx context.Context, id int) (employee.EmployeeEditResponse, error) {
	return f.GetForEditFn(ctx, id)
}
func (f *fakeEmployeeService) Update(ctx context.Context, id int, req employee.UpdateEmployeeRequest, photo *photostore.Upload) (employee.EmployeeResponse, error) {
	return f.UpdateFn(ctx, id, req, photo)
}
func (f *fakeEmployeeService) Delete(ctx context.Context, id int) error {
	return f.DeleteFn(ctx, id)
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestEmployeeHandler_List(t *testing.T) {
	listing := []employee.EmployeeResponse{
		{ID: 1, Name: "Mary", Email: "mary@pragimtech.com", Department: "HR", EncryptedID: "tok-1"},
		{ID: 2, Name: "John", Email: "john@pragimtech.com", Department: "IT", EncryptedID: "tok-2"},
		{ID: 3, Name: "Sam", Email: "sam@pragimtech.com", Department: "IT", EncryptedID: "tok-3"},
	}

	svc := &fakeEmployeeService{
		ListFn: func(ctx context.Context) ([]employee.EmployeeResponse, error) {
			return listing, nil
		},
	}

	h := employee.NewHandler(svc)
	r := setupRouter()
	r.GET("/employees", h.List)

	t.Run("success", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/employees", nil)
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, true, body["ok"])
		assert.Len(t, body["data"], 3)

		meta := body["meta"].(map[string]any)
		assert.Equal(t, float64(3), meta["total"])
	})

	t.Run("filter by name", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/employees?q=mar", nil)
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		data := body["data"].([]any)
		require.Len(t, data, 1)
		first := data[0].(map[string]any)
		assert.Equal(t, "Mary", first["name"])
	})

	t.Run("sort by name descending", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/employees?sort_by=name&sort_dir=desc", nil)
		r.ServeHTTP(rec, req)

		body := decodeEnvelope(t, rec)
		data := body["data"].([]any)
		require.Len(t, data, 3)
		first := data[0].(map[string]any)
		assert.Equal(t, "Sam", first["name"])
	})

	t.Run("pagination clamps past the end", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/employees?page=5&page_size=2", nil)
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Empty(t, body["data"])
	})
}

func TestEmployeeHandler_Details(t *testing.T) {
	h := employee.NewHandler(&fakeEmployeeService{
		DetailsFn: func(ctx context.Context, token string) (employee.EmployeeResponse, error) {
			if token == "good-token" {
				return employee.EmployeeResponse{ID: 1, Name: "Mary", EncryptedID: token}, nil
			}
			return employee.EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeToken
		},
	})
	r := setupRouter()
	r.GET("/employees/:id", h.Details)

	t.Run("success", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/employees/good-token", nil)
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeEnvelope(t, rec)
		data := body["data"].(map[string]any)
		assert.Equal(t, "Mary", data["name"])
	})

	t.Run("unreadable token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/employees/garbage", nil)
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeEnvelope(t, rec)
		assert.Equal(t, false, body["ok"])
	})
}

func multipartForm(t *testing.T, fields map[string]string, photoName string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if photoName != "" {
		fw, err := w.CreateFormFile("photo", photoName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("jpeg-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestEmployeeHandler_Create(t *testing.T) {
	t.Run("success with photo", func(t *testing.T) {
		svc := &fakeEmployeeService{
			CreateFn: func(ctx context.Context, req employee.CreateEmployeeRequest, photo *photostore.Upload) (employee.EmployeeResponse, error) {
				assert.Equal(t, "New Hire", req.Name)
				require.NotNil(t, photo)
				assert.Equal(t, "avatar.jpg", photo.Filename)
				return employee.EmployeeResponse{
					ID: 6, Name: req.Name, Email: req.Email,
					Department: req.Department, PhotoPath: "stored_avatar.jpg",
					EncryptedID: "tok-6",
				}, nil
			},
		}

		h := employee.NewHandler(svc)
		r := setupRouter()
		r.POST("/employees", h.Create)

		body, contentType := multipartForm(t, map[string]string{
			"name":       "New Hire",
			"email":      "new@pragimtech.com",
			"department": "IT",
		}, "avatar.jpg")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/employees", body)
		req.Header.Set("Content-Type", contentType)
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		env := decodeEnvelope(t, rec)
		data := env["data"].(map[string]any)
		assert.Equal(t, float64(6), data["id"])
		assert.Equal(t, "stored_avatar.jpg", data["photo_path"])
	})

	t.Run("success without photo", func(t *testing.T) {
		svc := &fakeEmployeeService{
			CreateFn: func(ctx context.Context, req employee.CreateEmployeeRequest, photo *photostore.Upload) (employee.EmployeeResponse, error) {
				assert.Nil(t, photo)
				return employee.EmployeeResponse{ID: 7, Name: req.Name, EncryptedID: "tok-7"}, nil
			},
		}

		h := employee.NewHandler(svc)
		r := setupRouter()
		r.POST("/employees", h.Create)

		form := strings.NewReader("name=New+Hire&email=new%40pragimtech.com")
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/employees", form)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("missing email fails validation", func(t *testing.T) {
		h := employee.NewHandler(&fakeEmployeeService{})
		r := setupRouter()
		r.POST("/employees", h.Create)

		form := strings.NewReader("name=New+Hire")
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/employees", form)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeEnvelope(t, rec)
		assert.Equal(t, false, env["ok"])
	})
}

func TestEmployeeHandler_Update(t *testing.T) {
	t.Run("non-numeric id", func(t *testing.T) {
		h := employee.NewHandler(&fakeEmployeeService{})
		r := setupRouter()
		r.PUT("/employees/:id", h.Update)

		form := strings.NewReader("name=Sam&email=sam%40pragimtech.com")
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/employees/abc", form)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing employee surfaces not found", func(t *testing.T) {
		h := employee.NewHandler(&fakeEmployeeService{
			UpdateFn: func(ctx context.Context, id int, req employee.UpdateEmployeeRequest, photo *photostore.Upload) (employee.EmployeeResponse, error) {
				return employee.EmployeeResponse{}, employeeerrors.NotFound(id)
			},
		})
		r := setupRouter()
		r.PUT("/employees/:id", h.Update)

		form := strings.NewReader("name=Ghost&email=ghost%40pragimtech.com")
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/employees/99", form)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		env := decodeEnvelope(t, rec)
		errObj := env["error"].(map[string]any)
		assert.Contains(t, errObj["message"], "99")
	})
}

func TestEmployeeHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := employee.NewHandler(&fakeEmployeeService{
			DeleteFn: func(ctx context.Context, id int) error {
				assert.Equal(t, 2, id)
				return nil
			},
		})
		r := setupRouter()
		r.DELETE("/employees/:id", h.Delete)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/employees/2", nil)
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing employee surfaces not found", func(t *testing.T) {
		h := employee.NewHandler(&fakeEmployeeService{
			DeleteFn: func(ctx context.Context, id int) error {
				return employeeerrors.NotFound(id)
			},
		})
		r := setupRouter()
		r.DELETE("/employees/:id", h.Delete)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/employees/42", nil)
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
