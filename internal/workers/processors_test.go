// internal/workers/processors_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/ammerola/boxwise-be/internal/core/services"
	"github.com/ammerola/boxwise-be/internal/workers"
	"github.com/ammerola/boxwise-be/test/helpers"
	"github.com/ammerola/boxwise-be/test/mocks"
)

func importTask(t *testing.T, p workers.ImportPayload) *asynq.Task {
	t.Helper()
	task, err := workers.NewImportTask(p)
	require.NoError(t, err)
	return task
}

func TestExcelProcessor_ProcessImport(t *testing.T) {
	sheet, err := services.WriteItemsWorkbook(helpers.CreateTestItems(3))
	require.NoError(t, err)

	payload := workers.ImportPayload{
		JobID:     uuid.New(),
		FileName:  "inventory.xlsx",
		ObjectKey: "imports/job.xlsx",
	}

	tests := []struct {
		name          string
		setupMocks    func(*mocks.MockItemService, *mocks.MockFileStorage)
		errorContains string
		skipRetry     bool
	}{
		{
			name: "imports_and_removes_sheet",
			setupMocks: func(items *mocks.MockItemService, storage *mocks.MockFileStorage) {
				storage.EXPECT().Download(gomock.Any(), payload.ObjectKey).Return(sheet, nil)
				items.EXPECT().ImportItems(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, got []domain.Item) (int, error) {
						require.Len(t, got, 3)
						assert.Equal(t, "Test Item 1", got[0].Name)
						return 3, nil
					})
				storage.EXPECT().Delete(gomock.Any(), payload.ObjectKey).Return(nil)
			},
		},
		{
			name: "sheet_missing",
			setupMocks: func(_ *mocks.MockItemService, storage *mocks.MockFileStorage) {
				storage.EXPECT().Download(gomock.Any(), payload.ObjectKey).Return(nil, ports.ErrObjectNotFound)
			},
			errorContains: "is gone",
			skipRetry:     true,
		},
		{
			name: "download_error_is_retried",
			setupMocks: func(_ *mocks.MockItemService, storage *mocks.MockFileStorage) {
				storage.EXPECT().Download(gomock.Any(), payload.ObjectKey).Return(nil, errors.New("timeout"))
			},
			errorContains: "failed to download sheet",
		},
		{
			name: "not_a_workbook",
			setupMocks: func(_ *mocks.MockItemService, storage *mocks.MockFileStorage) {
				storage.EXPECT().Download(gomock.Any(), payload.ObjectKey).Return([]byte("name,qty"), nil)
				storage.EXPECT().Delete(gomock.Any(), payload.ObjectKey).Return(nil)
			},
			errorContains: "failed to parse sheet",
			skipRetry:     true,
		},
		{
			name: "nothing_saved_is_retried",
			setupMocks: func(items *mocks.MockItemService, storage *mocks.MockFileStorage) {
				storage.EXPECT().Download(gomock.Any(), payload.ObjectKey).Return(sheet, nil)
				items.EXPECT().ImportItems(gomock.Any(), gomock.Any()).Return(0, errors.New("db down"))
			},
			errorContains: "failed to import items",
		},
		{
			name: "invalid_row_is_not_retried",
			setupMocks: func(items *mocks.MockItemService, storage *mocks.MockFileStorage) {
				storage.EXPECT().Download(gomock.Any(), payload.ObjectKey).Return(sheet, nil)
				items.EXPECT().ImportItems(gomock.Any(), gomock.Any()).
					Return(0, fmt.Errorf("%w for item %q (row 2): %w", domain.ErrValidation, "", errors.New("name is required")))
				storage.EXPECT().Delete(gomock.Any(), payload.ObjectKey).Return(nil)
			},
			errorContains: "import stopped after 0 items",
			skipRetry:     true,
		},
		{
			name: "partial_import_is_not_retried",
			setupMocks: func(items *mocks.MockItemService, storage *mocks.MockFileStorage) {
				storage.EXPECT().Download(gomock.Any(), payload.ObjectKey).Return(sheet, nil)
				items.EXPECT().ImportItems(gomock.Any(), gomock.Any()).Return(2, errors.New("batch 2-3 failed"))
				storage.EXPECT().Delete(gomock.Any(), payload.ObjectKey).Return(nil)
			},
			errorContains: "import stopped after 2 items",
			skipRetry:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			items := mocks.NewMockItemService(ctrl)
			storage := mocks.NewMockFileStorage(ctrl)
			tt.setupMocks(items, storage)

			processor := workers.NewExcelProcessor(items, storage, helpers.TestLogger())
			err := processor.ProcessImport(context.Background(), importTask(t, payload))

			if tt.errorContains == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestExcelProcessor_BadPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	processor := workers.NewExcelProcessor(mocks.NewMockItemService(ctrl), mocks.NewMockFileStorage(ctrl), helpers.TestLogger())

	err := processor.ProcessImport(context.Background(), asynq.NewTask(workers.TypeItemsImport, []byte("{")))

	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReportProcessor_GenerateReport(t *testing.T) {
	reportID := uuid.New()
	task, err := workers.NewReportTask(workers.ReportPayload{
		ReportID: reportID,
		Filter:   domain.ItemFilter{Search: "drill"},
	})
	require.NoError(t, err)

	t.Run("uploads_workbook", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reports := mocks.NewMockReportService(ctrl)
		storage := mocks.NewMockFileStorage(ctrl)

		reports.EXPECT().ItemsWorkbook(gomock.Any(), domain.ItemFilter{Search: "drill"}).
			Return([]byte("workbook"), 4, nil)
		storage.EXPECT().
			Upload(gomock.Any(), "reports/"+reportID.String()+".xlsx", gomock.Any(),
				"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet").
			DoAndReturn(func(_ context.Context, _ string, body io.Reader, _ string) error {
				b, err := io.ReadAll(body)
				require.NoError(t, err)
				assert.Equal(t, "workbook", string(b))
				return nil
			})

		processor := workers.NewReportProcessor(reports, storage, helpers.TestLogger())
		require.NoError(t, processor.GenerateReport(context.Background(), task))
	})

	t.Run("upload_failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		reports := mocks.NewMockReportService(ctrl)
		storage := mocks.NewMockFileStorage(ctrl)

		reports.EXPECT().ItemsWorkbook(gomock.Any(), gomock.Any()).Return([]byte("workbook"), 4, nil)
		storage.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("denied"))

		processor := workers.NewReportProcessor(reports, storage, helpers.TestLogger())
		err := processor.GenerateReport(context.Background(), task)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to upload report")
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestNewTasks(t *testing.T) {
	jobID := uuid.New()
	task, err := workers.NewImportTask(workers.ImportPayload{JobID: jobID, ObjectKey: workers.ImportObjectKey(jobID)})
	require.NoError(t, err)

	assert.Equal(t, workers.TypeItemsImport, task.Type())

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, jobID.String(), payload["job_id"])
	assert.Equal(t, fmt.Sprintf("imports/%s.xlsx", jobID), payload["object_key"])
}

func newCleanupProcessor(t *testing.T, fs afero.Fs) (*workers.CleanupProcessor, *mocks.MockFileStorage, *mocks.MockItemRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockFileStorage(ctrl)
	items := mocks.NewMockItemRepository(ctrl)
	p := workers.NewCleanupProcessor(storage, items, fs, workers.CleanupConfig{
		TempDir:         "/tmp/boxwise",
		TempMaxAge:      time.Hour,
		ReportRetention: 24 * time.Hour,
	}, helpers.TestLogger())
	return p, storage, items
}

func TestCleanupProcessor_CleanupReports(t *testing.T) {
	now := time.Now()

	t.Run("deletes_expired_objects", func(t *testing.T) {
		p, storage, _ := newCleanupProcessor(t, afero.NewMemMapFs())

		storage.EXPECT().List(gomock.Any(), "reports/").Return([]ports.ObjectInfo{
			{Key: "reports/old.xlsx", LastModified: now.Add(-48 * time.Hour)},
			{Key: "reports/new.xlsx", LastModified: now.Add(-time.Hour)},
		}, nil)
		storage.EXPECT().List(gomock.Any(), "imports/").Return([]ports.ObjectInfo{
			{Key: "imports/abandoned.xlsx", LastModified: now.Add(-30 * time.Hour)},
		}, nil)
		storage.EXPECT().DeleteMultiple(gomock.Any(), []string{"reports/old.xlsx", "imports/abandoned.xlsx"}).Return(nil)

		require.NoError(t, p.CleanupReports(context.Background(), asynq.NewTask(workers.TypeCleanupReports, nil)))
	})

	t.Run("nothing_expired", func(t *testing.T) {
		p, storage, _ := newCleanupProcessor(t, afero.NewMemMapFs())

		storage.EXPECT().List(gomock.Any(), "reports/").Return(nil, nil)
		storage.EXPECT().List(gomock.Any(), "imports/").Return([]ports.ObjectInfo{
			{Key: "imports/fresh.xlsx", LastModified: now},
		}, nil)

		require.NoError(t, p.CleanupReports(context.Background(), nil))
	})

	t.Run("list_error", func(t *testing.T) {
		p, storage, _ := newCleanupProcessor(t, afero.NewMemMapFs())
		storage.EXPECT().List(gomock.Any(), "reports/").Return(nil, errors.New("denied"))

		assert.Error(t, p.CleanupReports(context.Background(), nil))
	})
}

func TestCleanupProcessor_CleanupTempFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tmp/boxwise/old.jpg", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/tmp/boxwise/nested/old.xlsx", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/tmp/boxwise/fresh.jpg", []byte("x"), 0o644))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, fs.Chtimes("/tmp/boxwise/old.jpg", old, old))
	require.NoError(t, fs.Chtimes("/tmp/boxwise/nested/old.xlsx", old, old))

	p, _, _ := newCleanupProcessor(t, fs)
	require.NoError(t, p.CleanupTempFiles(context.Background(), nil))

	for path, want := range map[string]bool{
		"/tmp/boxwise/old.jpg":         false,
		"/tmp/boxwise/nested/old.xlsx": false,
		"/tmp/boxwise/fresh.jpg":       true,
	} {
		exists, err := afero.Exists(fs, path)
		require.NoError(t, err)
		assert.Equal(t, want, exists, path)
	}
}

func TestCleanupProcessor_CleanupTempFiles_MissingDir(t *testing.T) {
	p, _, _ := newCleanupProcessor(t, afero.NewMemMapFs())
	assert.NoError(t, p.CleanupTempFiles(context.Background(), nil))
}

func TestCleanupProcessor_CleanupOrphanAttachments(t *testing.T) {
	live := uuid.New()
	gone := uuid.New()

	t.Run("deletes_objects_of_deleted_items", func(t *testing.T) {
		p, storage, items := newCleanupProcessor(t, afero.NewMemMapFs())

		storage.EXPECT().List(gomock.Any(), "items/").Return([]ports.ObjectInfo{
			{Key: fmt.Sprintf("items/%s/attachments/a.jpg", live)},
			{Key: fmt.Sprintf("items/%s/attachments/b.pdf", gone)},
			{Key: "items/not-a-uuid/attachments/c.txt"},
		}, nil)
		items.EXPECT().FindByID(gomock.Any(), live).Return(&domain.Item{ID: live}, nil)
		items.EXPECT().FindByID(gomock.Any(), gone).Return(nil, domain.ErrItemNotFound)
		storage.EXPECT().DeleteMultiple(gomock.Any(), []string{fmt.Sprintf("items/%s/attachments/b.pdf", gone)}).Return(nil)

		require.NoError(t, p.CleanupOrphanAttachments(context.Background(), nil))
	})

	t.Run("lookup_error_aborts", func(t *testing.T) {
		p, storage, items := newCleanupProcessor(t, afero.NewMemMapFs())

		storage.EXPECT().List(gomock.Any(), "items/").Return([]ports.ObjectInfo{
			{Key: fmt.Sprintf("items/%s/attachments/a.jpg", live)},
		}, nil)
		items.EXPECT().FindByID(gomock.Any(), live).Return(nil, errors.New("db down"))

		err := p.CleanupOrphanAttachments(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to look up item")
	})
}

func TestNewServeMux(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockFileStorage(ctrl)
	items := mocks.NewMockItemService(ctrl)
	cleanup, _, _ := newCleanupProcessor(t, afero.NewMemMapFs())

	mux := workers.NewServeMux(workers.Processors{
		Excel:   workers.NewExcelProcessor(items, storage, helpers.TestLogger()),
		Report:  workers.NewReportProcessor(mocks.NewMockReportService(ctrl), storage, helpers.TestLogger()),
		Cleanup: cleanup,
	}, helpers.TestLogger())

	ctx := context.Background()
	assert.NoError(t, mux.ProcessTask(ctx, asynq.NewTask(workers.TypeCleanupTempFiles, nil)))
	assert.Error(t, mux.ProcessTask(ctx, asynq.NewTask("unknown:type", nil)))
}
