package http_test

import (
	"context"

	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/service"
	"portal-compare/internal/comparison/usecase"

	"github.com/stretchr/testify/mock"
)

type mockSessionUsecase struct {
	mock.Mock
}

func (m *mockSessionUsecase) CreateSession(ctx context.Context, in usecase.CreateSessionInput) (*model.Session, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionUsecase) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionUsecase) DeleteSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockSessionUsecase) SetCustomMapping(ctx context.Context, sessionID, keyA, keyB string) error {
	return m.Called(ctx, sessionID, keyA, keyB).Error(0)
}

func (m *mockSessionUsecase) RemoveCustomMapping(ctx context.Context, sessionID, keyA string) error {
	return m.Called(ctx, sessionID, keyA).Error(0)
}

func (m *mockSessionUsecase) RefreshCache(ctx context.Context, sessionID, objectType string, eager bool) (int, error) {
	args := m.Called(ctx, sessionID, objectType, eager)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionUsecase) CacheStatus(ctx context.Context, sessionID string) (*model.CacheStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CacheStatus), args.Error(1)
}

type mockComparisonUsecase struct {
	mock.Mock
}

func (m *mockComparisonUsecase) result(args mock.Arguments) (*model.ComparisonResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ComparisonResult), args.Error(1)
}

func (m *mockComparisonUsecase) CompareObjectType(ctx context.Context, sessionID, objectType string) (*model.ComparisonResult, error) {
	return m.result(m.Called(ctx, sessionID, objectType))
}

func (m *mockComparisonUsecase) CompareProperties(ctx context.Context, sessionID string, refA, refB usecase.PropertyRef) (*model.ComparisonResult, error) {
	return m.result(m.Called(ctx, sessionID, refA, refB))
}

func (m *mockComparisonUsecase) CompareAssociations(ctx context.Context, sessionID, fromObject, toObject string) (*model.ComparisonResult, error) {
	return m.result(m.Called(ctx, sessionID, fromObject, toObject))
}

func (m *mockComparisonUsecase) CompareCustomObjects(ctx context.Context, sessionID, keyA, keyB string) (*model.ComparisonResult, error) {
	return m.result(m.Called(ctx, sessionID, keyA, keyB))
}

func (m *mockComparisonUsecase) ListObjects(ctx context.Context, sessionID string) (*usecase.ObjectCatalog, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ObjectCatalog), args.Error(1)
}

func (m *mockComparisonUsecase) AutoMatchCustomObjects(ctx context.Context, sessionID string) (*usecase.AutoMatchResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AutoMatchResult), args.Error(1)
}

func (m *mockComparisonUsecase) MatchingOverview(ctx context.Context, sessionID string) (*usecase.MatchingOverview, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.MatchingOverview), args.Error(1)
}

func (m *mockComparisonUsecase) Filter(result *model.ComparisonResult, opts service.FilterOptions) (*model.ComparisonResult, error) {
	args := m.Called(result, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ComparisonResult), args.Error(1)
}
