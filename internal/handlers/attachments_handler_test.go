// internal/handlers/attachments_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/ammerola/boxwise-be/internal/core/services"
	"github.com/ammerola/boxwise-be/internal/handlers"
	"github.com/ammerola/boxwise-be/test/helpers"
	"github.com/ammerola/boxwise-be/test/mocks"
)

type formFile struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, target string, files ...formFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name)}
		h["Content-Type"] = []string{f.contentType}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newAttachmentHandler(t *testing.T) (*handlers.AttachmentHandler, *mocks.MockAttachmentService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockAttachmentService(ctrl)
	return handlers.NewAttachmentHandler(svc, 10*time.Minute, helpers.TestLogger()), svc
}

func TestAttachmentHandler_Upload(t *testing.T) {
	itemID := uuid.New()
	photo := helpers.TestJPEG(t, 64, 48, 80)

	tests := []struct {
		name           string
		files          []formFile
		setupMocks     func(*mocks.MockAttachmentService)
		expectedStatus int
		message        string
	}{
		{
			name: "uploads_every_file",
			files: []formFile{
				{field: "files", name: "front.jpg", contentType: "image/jpeg", data: photo},
				{field: "files", name: "receipt.txt", contentType: "text/plain", data: []byte("paid in full")},
			},
			setupMocks: func(m *mocks.MockAttachmentService) {
				m.EXPECT().
					Upload(gomock.Any(), itemID, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ uuid.UUID, files []ports.UploadFile) ([]domain.Attachment, error) {
						require.Len(t, files, 2)
						assert.Equal(t, "front.jpg", files[0].FileName)
						assert.Equal(t, "image/jpeg", files[0].MimeType)
						assert.Equal(t, photo, files[0].Data)
						assert.Equal(t, []byte("paid in full"), files[1].Data)
						return []domain.Attachment{
							{ID: uuid.New(), ItemID: itemID, FileName: "front.jpg"},
							{ID: uuid.New(), ItemID: itemID, FileName: "receipt.txt"},
						}, nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:  "no_files_field",
			files: []formFile{{field: "other", name: "a.txt", contentType: "text/plain", data: []byte("x")}},
			setupMocks: func(m *mocks.MockAttachmentService) {
				m.EXPECT().Upload(gomock.Any(), itemID, []ports.UploadFile{}).Return(nil, services.ErrNoFiles)
			},
			expectedStatus: http.StatusBadRequest,
			message:        "no files provided",
		},
		{
			name:  "too_large",
			files: []formFile{{field: "files", name: "scan.pdf", contentType: "application/pdf", data: []byte("%PDF-1.4")}},
			setupMocks: func(m *mocks.MockAttachmentService) {
				m.EXPECT().Upload(gomock.Any(), itemID, gomock.Any()).
					Return(nil, fmt.Errorf("scan.pdf: %w", domain.ErrAttachmentTooLarge))
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
			message:        "scan.pdf: file exceeds maximum size",
		},
		{
			name:  "type_not_allowed",
			files: []formFile{{field: "files", name: "setup.exe", contentType: "application/octet-stream", data: []byte("MZ")}},
			setupMocks: func(m *mocks.MockAttachmentService) {
				m.EXPECT().Upload(gomock.Any(), itemID, gomock.Any()).Return(nil, domain.ErrAttachmentTypeNotAllowed)
			},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:  "limit_reached",
			files: []formFile{{field: "files", name: "a.txt", contentType: "text/plain", data: []byte("a")}},
			setupMocks: func(m *mocks.MockAttachmentService) {
				m.EXPECT().Upload(gomock.Any(), itemID, gomock.Any()).Return(nil, domain.ErrAttachmentLimitReached)
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:  "unknown_item",
			files: []formFile{{field: "files", name: "a.txt", contentType: "text/plain", data: []byte("a")}},
			setupMocks: func(m *mocks.MockAttachmentService) {
				m.EXPECT().Upload(gomock.Any(), itemID, gomock.Any()).Return(nil, domain.ErrItemNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:  "storage_failure",
			files: []formFile{{field: "files", name: "a.txt", contentType: "text/plain", data: []byte("a")}},
			setupMocks: func(m *mocks.MockAttachmentService) {
				m.EXPECT().Upload(gomock.Any(), itemID, gomock.Any()).Return(nil, errors.New("s3 unavailable"))
			},
			expectedStatus: http.StatusInternalServerError,
			message:        "Failed to store attachments",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newAttachmentHandler(t)
			tt.setupMocks(svc)

			req := multipartRequest(t, "/api/v1/items/"+itemID.String()+"/attachments", tt.files...)
			req.SetPathValue("id", itemID.String())
			w := httptest.NewRecorder()

			handler.Upload(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			env := decodeEnvelope(t, w.Body.Bytes())
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Message)
			}
			if tt.expectedStatus == http.StatusCreated {
				var saved []domain.Attachment
				require.NoError(t, json.Unmarshal(env.Data, &saved))
				assert.Len(t, saved, 2)
			}
		})
	}
}

func TestAttachmentHandler_Upload_NotMultipart(t *testing.T) {
	handler, _ := newAttachmentHandler(t)
	id := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/items/"+id.String()+"/attachments",
		bytes.NewBufferString(`{"files":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", id.String())
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Failed to parse form data", decodeEnvelope(t, w.Body.Bytes()).Message)
}

func TestAttachmentHandler_List(t *testing.T) {
	handler, svc := newAttachmentHandler(t)
	itemID := uuid.New()
	svc.EXPECT().List(gomock.Any(), itemID).Return([]domain.Attachment{
		{ID: uuid.New(), ItemID: itemID, FileName: "front.jpg"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/items/"+itemID.String()+"/attachments", nil)
	req.SetPathValue("id", itemID.String())
	w := httptest.NewRecorder()

	handler.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	require.NotNil(t, env.Total)
	assert.Equal(t, int64(1), *env.Total)
}

func TestAttachmentHandler_DownloadURL(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name           string
		url            string
		err            error
		expectedStatus int
	}{
		{name: "presigned", url: "https://bucket.s3.amazonaws.com/items/x?sig=1", expectedStatus: http.StatusOK},
		{name: "missing_attachment", err: domain.ErrAttachmentNotFound, expectedStatus: http.StatusNotFound},
		{name: "storage_error", err: errors.New("expired credentials"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newAttachmentHandler(t)
			svc.EXPECT().DownloadURL(gomock.Any(), id, 10*time.Minute).Return(tt.url, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/attachments/"+id.String()+"/url", nil)
			req.SetPathValue("id", id.String())
			w := httptest.NewRecorder()

			handler.DownloadURL(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				var data struct {
					URL string `json:"url"`
				}
				require.NoError(t, json.Unmarshal(decodeEnvelope(t, w.Body.Bytes()).Data, &data))
				assert.Equal(t, tt.url, data.URL)
			}
		})
	}
}

func TestAttachmentHandler_Delete(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name           string
		pathID         string
		setupMocks     func(*mocks.MockAttachmentService)
		expectedStatus int
	}{
		{
			name:   "deleted",
			pathID: id.String(),
			setupMocks: func(m *mocks.MockAttachmentService) {
				m.EXPECT().Delete(gomock.Any(), id).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "not_found",
			pathID: id.String(),
			setupMocks: func(m *mocks.MockAttachmentService) {
				m.EXPECT().Delete(gomock.Any(), id).Return(domain.ErrAttachmentNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "invalid_id",
			pathID:         "123",
			setupMocks:     func(m *mocks.MockAttachmentService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := newAttachmentHandler(t)
			tt.setupMocks(svc)

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/attachments/"+tt.pathID, nil)
			req.SetPathValue("id", tt.pathID)
			w := httptest.NewRecorder()

			handler.Delete(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
