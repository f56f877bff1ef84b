package service_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"safeher/internal/domain"
	"safeher/internal/service"
	mock_service "safeher/internal/service/mocks"
	"safeher/pkg/e"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), &slog.HandlerOptions{Level: slog.LevelError}))
}

func validCreate() domain.CreateAlertRequest {
	return domain.CreateAlertRequest{UserID: "u1", Lat: 12.97, Lng: 77.59, Source: strPtr("panic")}
}

func statusPtr(s domain.Status) *domain.Status { return &s }

func storedAlert(id uuid.UUID, status domain.Status) *domain.Alert {
	return &domain.Alert{
		ID:        id,
		UserID:    "u1",
		Lat:       12.97,
		Lng:       77.59,
		Source:    domain.SourcePanic,
		Timestamp: fixedNow(),
		Status:    status,
		CreatedAt: fixedNow(),
		UpdatedAt: fixedNow(),
	}
}

// --- Create ---

func TestAlertService_Create_OK_SchedulesDispatch(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	sched := mock_service.NewMockScheduler(ctrl)

	wantID := uuid.New()
	repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a *domain.Alert) error {
			a.ID = wantID
			a.CreatedAt = fixedNow()
			a.UpdatedAt = fixedNow()
			return nil
		}).
		Times(1)

	var task domain.DispatchTask
	sched.EXPECT().
		Schedule(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, tk domain.DispatchTask) error {
			task = tk
			return nil
		}).
		Times(1)

	svc := service.NewAlertService(repo, sched, newTestLogger(), service.WithClock(fixedNow))

	got, err := svc.Create(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.ID != wantID {
		t.Fatalf("expected id %s, got %s", wantID, got.ID)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %q", got.Status)
	}
	if !got.Timestamp.Equal(fixedNow()) {
		t.Fatalf("expected timestamp %s, got %s", fixedNow(), got.Timestamp)
	}
	if task.AlertID != wantID || task.UserID != "u1" || task.Lat != 12.97 || task.Lng != 77.59 {
		t.Fatalf("unexpected dispatch task: %+v", task)
	}
}

func TestAlertService_Create_ValidationError_NoInsert(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	sched := mock_service.NewMockScheduler(ctrl)

	svc := service.NewAlertService(repo, sched, newTestLogger())

	req := validCreate()
	req.Lat = 200.0

	_, err := svc.Create(context.Background(), req)
	if !errors.Is(err, e.ErrInvalidLatitude) {
		t.Fatalf("expected invalid latitude, got %v", err)
	}
}

func TestAlertService_Create_RepoError_IsPersistence(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	sched := mock_service.NewMockScheduler(ctrl)

	repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		Return(errors.New("db down")).
		Times(1)

	svc := service.NewAlertService(repo, sched, newTestLogger())

	_, err := svc.Create(context.Background(), validCreate())
	if !errors.Is(err, e.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestAlertService_Create_ScheduleFailure_StillSucceeds(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	sched := mock_service.NewMockScheduler(ctrl)

	repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a *domain.Alert) error {
			a.ID = uuid.New()
			return nil
		}).
		Times(1)
	sched.EXPECT().
		Schedule(gomock.Any(), gomock.Any()).
		Return(e.ErrQueueFull).
		Times(1)

	svc := service.NewAlertService(repo, sched, newTestLogger())

	got, err := svc.Create(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("schedule failure must not fail creation: %v", err)
	}
	if got.ID == uuid.Nil {
		t.Fatalf("expected created alert id")
	}
}

func TestAlertService_Create_CancelledRequestStillSchedules(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	sched := mock_service.NewMockScheduler(ctrl)

	ctx, cancel := context.WithCancel(context.Background())

	repo.EXPECT().
		Insert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, a *domain.Alert) error {
			a.ID = uuid.New()
			cancel()
			return nil
		}).
		Times(1)
	sched.EXPECT().
		Schedule(gomock.Any(), gomock.Any()).
		DoAndReturn(func(sctx context.Context, _ domain.DispatchTask) error {
			if sctx.Err() != nil {
				t.Errorf("schedule context must be detached from the request, got %v", sctx.Err())
			}
			return nil
		}).
		Times(1)

	svc := service.NewAlertService(repo, sched, newTestLogger())
	if _, err := svc.Create(ctx, validCreate()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

// --- List ---

func TestAlertService_List_LimitNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default_on_zero", 0, 50},
		{"default_on_negative", -5, 50},
		{"passthrough", 10, 10},
		{"cap", 1000, 100},
		{"exact_cap", 100, 100},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mock_service.NewMockAlertRepository(ctrl)
			repo.EXPECT().
				FindRecent(gomock.Any(), tt.wantLimit, "u1").
				Return([]*domain.Alert{}, nil).
				Times(1)

			svc := service.NewAlertService(repo, nil, newTestLogger())
			if _, err := svc.List(context.Background(), domain.ListAlertsRequest{Limit: tt.limit, UserID: " u1 "}); err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
		})
	}
}

func TestAlertService_List_RepoError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	wantErr := errors.New("db down")
	repo.EXPECT().FindRecent(gomock.Any(), 50, "").Return(nil, wantErr).Times(1)

	svc := service.NewAlertService(repo, nil, newTestLogger())
	if _, err := svc.List(context.Background(), domain.ListAlertsRequest{}); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v got %v", wantErr, err)
	}
}

// --- Get ---

func TestAlertService_Get_InvalidID(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	svc := service.NewAlertService(repo, nil, newTestLogger())

	for _, id := range []string{"", "abc", "64f1c2a9e4b0a1b2c3d4e5f6"} {
		if _, err := svc.Get(context.Background(), id); !errors.Is(err, e.ErrInvalidIdentifier) {
			t.Fatalf("id %q: expected ErrInvalidIdentifier, got %v", id, err)
		}
	}
}

func TestAlertService_Get_NotFound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	id := uuid.New()
	repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, e.ErrNotFound).Times(1)

	svc := service.NewAlertService(repo, nil, newTestLogger())
	if _, err := svc.Get(context.Background(), id.String()); !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- UpdateStatus ---

func TestAlertService_UpdateStatus_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	id := uuid.New()

	repo.EXPECT().FindByID(gomock.Any(), id).Return(storedAlert(id, domain.StatusPending), nil).Times(1)
	repo.EXPECT().
		UpdateStatus(gomock.Any(), id, statusPtr(domain.StatusAcknowledged), nil).
		Return(storedAlert(id, domain.StatusAcknowledged), nil).
		Times(1)

	svc := service.NewAlertService(repo, nil, newTestLogger())
	got, err := svc.UpdateStatus(context.Background(), id.String(), domain.UpdateAlertRequest{Status: strPtr("acknowledged")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != domain.StatusAcknowledged {
		t.Fatalf("expected acknowledged, got %q", got.Status)
	}
}

func TestAlertService_UpdateStatus_NotesOnly_SkipsLifecycleRead(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	id := uuid.New()

	repo.EXPECT().
		UpdateStatus(gomock.Any(), id, nil, strPtr("called back")).
		Return(storedAlert(id, domain.StatusPending), nil).
		Times(1)

	svc := service.NewAlertService(repo, nil, newTestLogger())
	if _, err := svc.UpdateStatus(context.Background(), id.String(), domain.UpdateAlertRequest{Notes: strPtr("  called back ")}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestAlertService_UpdateStatus_Empty_ReturnsCurrent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	id := uuid.New()
	repo.EXPECT().FindByID(gomock.Any(), id).Return(storedAlert(id, domain.StatusPending), nil).Times(1)

	svc := service.NewAlertService(repo, nil, newTestLogger())
	got, err := svc.UpdateStatus(context.Background(), id.String(), domain.UpdateAlertRequest{Status: strPtr(""), Notes: strPtr("")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("expected unchanged status, got %q", got.Status)
	}
}

func TestAlertService_UpdateStatus_InvalidStatus(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	svc := service.NewAlertService(repo, nil, newTestLogger())

	_, err := svc.UpdateStatus(context.Background(), uuid.NewString(), domain.UpdateAlertRequest{Status: strPtr("closed")})
	if !errors.Is(err, e.ErrValidation) || !errors.Is(err, e.ErrInvalidStatus) {
		t.Fatalf("expected invalid status validation error, got %v", err)
	}
}

func TestAlertService_UpdateStatus_InvalidID(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	svc := service.NewAlertService(repo, nil, newTestLogger())

	_, err := svc.UpdateStatus(context.Background(), "not-an-id", domain.UpdateAlertRequest{Status: strPtr("resolved")})
	if !errors.Is(err, e.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestAlertService_UpdateStatus_NotFound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	id := uuid.New()
	repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, e.ErrNotFound).Times(1)

	svc := service.NewAlertService(repo, nil, newTestLogger())
	_, err := svc.UpdateStatus(context.Background(), id.String(), domain.UpdateAlertRequest{Status: strPtr("resolved")})
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAlertService_UpdateStatus_ReopenAllowedByDefault(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	id := uuid.New()

	repo.EXPECT().FindByID(gomock.Any(), id).Return(storedAlert(id, domain.StatusResolved), nil).Times(1)
	repo.EXPECT().
		UpdateStatus(gomock.Any(), id, statusPtr(domain.StatusPending), nil).
		Return(storedAlert(id, domain.StatusPending), nil).
		Times(1)

	svc := service.NewAlertService(repo, nil, newTestLogger())
	got, err := svc.UpdateStatus(context.Background(), id.String(), domain.UpdateAlertRequest{Status: strPtr("pending")})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %q", got.Status)
	}
}

func TestAlertService_UpdateStatus_StrictRejectsReopen(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	id := uuid.New()
	repo.EXPECT().FindByID(gomock.Any(), id).Return(storedAlert(id, domain.StatusFalseAlarm), nil).Times(1)

	svc := service.NewAlertService(repo, nil, newTestLogger(), service.WithStrictTransitions(true))
	_, err := svc.UpdateStatus(context.Background(), id.String(), domain.UpdateAlertRequest{Status: strPtr("acknowledged")})
	if !errors.Is(err, e.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestAlertService_UpdateStatus_RepoErrorPropagated(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	id := uuid.New()
	wantErr := errors.New("write failed")

	repo.EXPECT().FindByID(gomock.Any(), id).Return(storedAlert(id, domain.StatusPending), nil).Times(1)
	repo.EXPECT().UpdateStatus(gomock.Any(), id, gomock.Any(), gomock.Any()).Return(nil, wantErr).Times(1)

	svc := service.NewAlertService(repo, nil, newTestLogger())
	_, err := svc.UpdateStatus(context.Background(), id.String(), domain.UpdateAlertRequest{Status: strPtr("resolved")})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v got %v", wantErr, err)
	}
}

func TestAlertService_Create_UsesClock(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_service.NewMockAlertRepository(ctrl)
	at := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	svc := service.NewAlertService(repo, nil, newTestLogger(), service.WithClock(func() time.Time { return at }))
	got, err := svc.Create(context.Background(), validCreate())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !got.Timestamp.Equal(at) {
		t.Fatalf("expected %s got %s", at, got.Timestamp)
	}
}
