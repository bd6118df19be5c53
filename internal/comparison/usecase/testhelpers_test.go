package usecase_test

import (
	"context"
	"time"

	"portal-compare/internal/comparison/adapter/persistence/memory"
	"portal-compare/internal/comparison/domain/model"
	"portal-compare/internal/comparison/domain/service"
	"portal-compare/internal/comparison/usecase"
	"portal-compare/internal/shared/eventbus"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const (
	tokenA = "token-portal-a"
	tokenB = "token-portal-b"
)

var (
	credA = model.NewCredential(tokenA)
	credB = model.NewCredential(tokenB)
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchProperties(ctx context.Context, cred model.Credential, objectType string) ([]model.PropertyDefinition, error) {
	args := m.Called(ctx, cred, objectType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PropertyDefinition), args.Error(1)
}

func (m *mockFetcher) FetchSchemas(ctx context.Context, cred model.Credential) ([]model.ObjectSchema, error) {
	args := m.Called(ctx, cred)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ObjectSchema), args.Error(1)
}

func (m *mockFetcher) FetchAssociations(ctx context.Context, cred model.Credential, from, to string) ([]model.AssociationType, error) {
	args := m.Called(ctx, cred, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AssociationType), args.Error(1)
}

func (m *mockFetcher) ValidateCredential(ctx context.Context, cred model.Credential) error {
	return m.Called(ctx, cred).Error(0)
}

type mockMetrics struct {
	mock.Mock
}

func (m *mockMetrics) CacheLookup(entity string, hit bool)                         {}
func (m *mockMetrics) FetchCompleted(operation string, d time.Duration, err error) {}
func (m *mockMetrics) SessionsActive(n int)                                        {}

func (m *mockMetrics) ComparisonCompleted(kind string, d time.Duration, err error) {
	m.Called(kind, err)
}

// usecaseSuite wires both usecases on the in-memory stores with a mocked
// fetcher.
type usecaseSuite struct {
	suite.Suite
	ctx         context.Context
	fetcher     *mockFetcher
	metrics     *mockMetrics
	store       *memory.SessionStore
	cache       *memory.SnapshotCache
	comparisons *usecase.ComparisonUsecase
	sessions    *usecase.SessionUsecase
}

func (s *usecaseSuite) SetupTest() {
	s.ctx = context.Background()
	s.fetcher = &mockFetcher{}
	s.metrics = &mockMetrics{}
	s.metrics.On("ComparisonCompleted", mock.Anything, mock.Anything).Return().Maybe()

	bus := eventbus.NewEventBus(nil)
	s.cache = memory.NewSnapshotCache(memory.SnapshotCacheConfig{}, nil, nil)
	s.cache.Subscribe(bus)
	s.store = memory.NewSessionStore(memory.SessionStoreConfig{TTL: time.Hour}, nil, memory.WithEventBus(bus))

	filter, err := service.NewResultFilter()
	s.Require().NoError(err)
	s.comparisons = usecase.NewComparisonUsecase(s.store, s.cache, s.fetcher, filter, s.metrics, nil)
	s.sessions = usecase.NewSessionUsecase(s.store, s.cache, s.fetcher, s.fetcher, nil)
}

func (s *usecaseSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *usecaseSuite) newSession() *model.Session {
	sess, err := s.store.Create(s.ctx, credA, credB, "Production", "Sandbox")
	s.Require().NoError(err)
	return sess
}

func prop(name, label string, options ...model.Option) model.PropertyDefinition {
	return model.PropertyDefinition{
		Name:      name,
		Label:     label,
		Type:      model.PropertyTypeString,
		FieldType: model.FieldTypeText,
		GroupName: "info",
		Options:   options,
	}
}

func custom(id, name string) model.ObjectSchema {
	return model.ObjectSchema{ObjectTypeID: id, Name: name, Custom: true}
}
