package usecase_test

import (
	"context"
	"testing"
	"time"

	authmodel "github.com/Gogfather/thegogfather.com/internal/auth/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/content/domain/model"
	"github.com/Gogfather/thegogfather.com/internal/content/usecase"
	apperrors "github.com/Gogfather/thegogfather.com/internal/shared/errors"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MirrorTestSuite struct {
	suite.Suite
	repo     *mockContentRepository
	rules    *mockAccessRules
	realtime usecase.RealtimeUsecase
	mirror   *usecase.Mirror
}

func (s *MirrorTestSuite) SetupTest() {
	s.repo = &mockContentRepository{}
	s.rules = &mockAccessRules{}
	s.realtime = usecase.NewRealtimeUsecase(logger.NewLogger())
	s.mirror = usecase.NewMirror(s.repo, s.rules, s.realtime, validAppConfig(), logger.NewLogger())
}

func (s *MirrorTestSuite) TearDownTest() {
	s.mirror.Stop(context.Background())
}

func (s *MirrorTestSuite) allowAllReads() {
	s.rules.On("CanRead", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
}

func (s *MirrorTestSuite) emptySnapshots() {
	s.repo.On("ListRecords", mock.Anything, "the-gogfather", mock.Anything).Return([]model.Record{}, nil)
}

// publish pushes an event and waits for the mirror to fold it in.
func (s *MirrorTestSuite) publish(event model.RealtimeEvent) {
	s.Require().NoError(s.realtime.PublishEvent(context.Background(), event))
	s.Eventually(func() bool {
		list, err := s.mirror.List(event.Collection)
		if err != nil {
			return false
		}
		for i := range list {
			if list[i].ID == event.RecordID {
				return event.Type != model.EventTypeDeleted
			}
		}
		return event.Type == model.EventTypeDeleted
	}, time.Second, 5*time.Millisecond)
}

// failingBroker refuses every subscription.
type failingBroker struct{}

func (f *failingBroker) Subscribe(ctx context.Context, subscriberID, path string, eventChannel chan<- model.RealtimeEvent) error {
	return apperrors.NewInternalError("broker unavailable")
}

func (f *failingBroker) Unsubscribe(ctx context.Context, subscriberID, path string) error {
	return nil
}

func (f *failingBroker) UnsubscribeAll(ctx context.Context, subscriberID string) error {
	return nil
}

func (f *failingBroker) PublishEvent(ctx context.Context, event model.RealtimeEvent) error {
	return nil
}

func createdEvent(record *model.Record) model.RealtimeEvent {
	return model.RealtimeEvent{
		Type:       model.EventTypeCreated,
		FullPath:   model.CollectionPath(record.Namespace, record.Collection),
		Namespace:  record.Namespace,
		Collection: record.Collection,
		RecordID:   record.ID,
		Data:       record.Data(),
		Timestamp:  time.Now(),
	}
}

func (s *MirrorTestSuite) TestStart_LoadsSnapshot() {
	s.allowAllReads()
	now := time.Now()
	photos := []model.Record{
		{ID: "p2", Namespace: "the-gogfather", Collection: model.CollectionPhotos, CreatedAt: now},
		{ID: "p1", Namespace: "the-gogfather", Collection: model.CollectionPhotos, CreatedAt: now.Add(-time.Hour)},
	}
	s.repo.On("ListRecords", mock.Anything, "the-gogfather", model.CollectionPhotos).Return(photos, nil)
	s.repo.On("ListRecords", mock.Anything, "the-gogfather", mock.Anything).Return([]model.Record{}, nil)

	s.Require().NoError(s.mirror.Start(context.Background()))

	list, err := s.mirror.List(model.CollectionPhotos)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("p2", list[0].ID)
	s.Equal("p1", list[1].ID)
}

func (s *MirrorTestSuite) TestStart_RefusesFallbackNamespace() {
	mirror := usecase.NewMirror(s.repo, s.rules, s.realtime, fallbackAppConfig(), logger.NewLogger())
	err := mirror.Start(context.Background())
	s.Require().Error(err)
	s.True(apperrors.IsConfiguration(err))
	s.repo.AssertNotCalled(s.T(), "ListRecords", mock.Anything, mock.Anything, mock.Anything)
}

func (s *MirrorTestSuite) TestStart_SubscribeFailureUnwinds() {
	s.allowAllReads()
	s.emptySnapshots()

	mirror := usecase.NewMirror(s.repo, s.rules, &failingBroker{}, validAppConfig(), logger.NewLogger())
	err := mirror.Start(context.Background())
	s.Require().Error(err)

	stopped := make(chan struct{})
	go func() {
		mirror.Stop(context.Background())
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		s.FailNow("Stop blocked after a failed Start")
	}
}

func (s *MirrorTestSuite) TestDenial_IsolatedPerCollection() {
	s.rules.On("CanRead", mock.Anything, model.CollectionBlog, mock.Anything).Return(false, nil)
	s.rules.On("CanRead", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	s.emptySnapshots()

	s.Require().NoError(s.mirror.Start(context.Background()))

	_, err := s.mirror.List(model.CollectionBlog)
	s.Require().Error(err)
	s.True(apperrors.IsPermissionDenied(err))
	s.Error(s.mirror.Denied(model.CollectionBlog))

	for _, collection := range []string{model.CollectionPhotos, model.CollectionVideos, model.CollectionMusic, model.CollectionArt} {
		_, err := s.mirror.List(collection)
		s.NoError(err, collection)
	}
}

func (s *MirrorTestSuite) TestReadYourWrites_ViaEcho() {
	s.allowAllReads()
	s.emptySnapshots()
	s.Require().NoError(s.mirror.Start(context.Background()))

	record := &model.Record{
		ID:         "p1",
		Namespace:  "the-gogfather",
		Collection: model.CollectionPhotos,
		OwnerID:    "u1",
		CreatedAt:  time.Now(),
		Fields:     map[string]interface{}{"url": "https://example.com/p.jpg", "caption": "Hi"},
	}
	s.publish(createdEvent(record))

	list, err := s.mirror.List(model.CollectionPhotos)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Hi", list[0].Field("caption"))
	s.Equal("u1", list[0].OwnerID)
	s.False(list[0].IsFeatured)
}

func (s *MirrorTestSuite) TestApply_KeepsNewestFirst() {
	s.allowAllReads()
	s.emptySnapshots()
	s.Require().NoError(s.mirror.Start(context.Background()))

	base := time.Now()
	old := &model.Record{ID: "old", Namespace: "the-gogfather", Collection: model.CollectionBlog, CreatedAt: base.Add(-time.Hour),
		Fields: map[string]interface{}{"title": "old"}}
	newer := &model.Record{ID: "new", Namespace: "the-gogfather", Collection: model.CollectionBlog, CreatedAt: base,
		Fields: map[string]interface{}{"title": "new"}}

	s.publish(createdEvent(old))
	s.publish(createdEvent(newer))

	list, err := s.mirror.List(model.CollectionBlog)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("new", list[0].ID)
	s.Equal("old", list[1].ID)
}

func (s *MirrorTestSuite) TestApply_UpdateReplacesInPlace() {
	s.allowAllReads()
	s.emptySnapshots()
	s.Require().NoError(s.mirror.Start(context.Background()))

	photo := &model.Record{ID: "p1", Namespace: "the-gogfather", Collection: model.CollectionPhotos, CreatedAt: time.Now(),
		Fields: map[string]interface{}{"url": "u", "caption": "before"}}
	s.publish(createdEvent(photo))

	photo.Fields["caption"] = "after"
	photo.IsFeatured = true
	update := createdEvent(photo)
	update.Type = model.EventTypeUpdated
	s.Require().NoError(s.realtime.PublishEvent(context.Background(), update))

	s.Eventually(func() bool {
		list, err := s.mirror.List(model.CollectionPhotos)
		return err == nil && len(list) == 1 && list[0].Field("caption") == "after" && list[0].IsFeatured
	}, time.Second, 5*time.Millisecond)
}

func (s *MirrorTestSuite) TestApply_Delete() {
	s.allowAllReads()
	s.emptySnapshots()
	s.Require().NoError(s.mirror.Start(context.Background()))

	art := &model.Record{ID: "a1", Namespace: "the-gogfather", Collection: model.CollectionArt, CreatedAt: time.Now(),
		Fields: map[string]interface{}{"title": "t"}}
	s.publish(createdEvent(art))

	s.publish(model.RealtimeEvent{
		Type:       model.EventTypeDeleted,
		FullPath:   model.CollectionPath("the-gogfather", model.CollectionArt),
		Namespace:  "the-gogfather",
		Collection: model.CollectionArt,
		RecordID:   "a1",
	})

	list, err := s.mirror.List(model.CollectionArt)
	s.Require().NoError(err)
	s.Empty(list)
}

func (s *MirrorTestSuite) TestPhotos_DerivedView() {
	s.allowAllReads()
	now := time.Now()
	photos := []model.Record{
		{ID: "p3", Namespace: "the-gogfather", Collection: model.CollectionPhotos, CreatedAt: now},
		{ID: "p2", Namespace: "the-gogfather", Collection: model.CollectionPhotos, IsFeatured: true, CreatedAt: now.Add(-time.Hour)},
		{ID: "p1", Namespace: "the-gogfather", Collection: model.CollectionPhotos, CreatedAt: now.Add(-2 * time.Hour)},
	}
	s.repo.On("ListRecords", mock.Anything, "the-gogfather", model.CollectionPhotos).Return(photos, nil)
	s.repo.On("ListRecords", mock.Anything, "the-gogfather", mock.Anything).Return([]model.Record{}, nil)
	s.Require().NoError(s.mirror.Start(context.Background()))

	featured, others, err := s.mirror.Photos()
	s.Require().NoError(err)
	s.Require().NotNil(featured)
	s.Equal("p2", featured.ID)
	s.Require().Len(others, 2)
	s.Equal("p3", others[0].ID)
	s.Equal("p1", others[1].ID)
}

func (s *MirrorTestSuite) TestPhotos_NoFeatured() {
	s.allowAllReads()
	s.emptySnapshots()
	s.Require().NoError(s.mirror.Start(context.Background()))

	featured, others, err := s.mirror.Photos()
	s.Require().NoError(err)
	s.Nil(featured)
	s.Empty(others)
}

func (s *MirrorTestSuite) TestUnknownCollection() {
	_, err := s.mirror.List("gadgets")
	s.ErrorIs(err, apperrors.ErrUnknownCollection)
}

// End-to-end through the mutator: an Add becomes visible in the mirror only
// via the echoed event, never by direct mutation.
func (s *MirrorTestSuite) TestMutatorEchoRoundtrip() {
	s.allowAllReads()
	s.emptySnapshots()
	s.rules.On("CanWrite", mock.Anything, model.CollectionPhotos, mock.Anything).Return(true, nil)
	s.repo.On("CreateRecord", mock.Anything, mock.Anything).Return(nil)
	s.Require().NoError(s.mirror.Start(context.Background()))

	mut := usecase.NewContentMutator(
		s.repo, s.rules, s.realtime, nil, nil, &stubAuthorizer{allow: true},
		validAppConfig(), usecase.MutatorOptions{}, logger.NewLogger(),
	)
	record, err := mut.Add(context.Background(), authmodel.Identity{UserID: "u1"}, model.CollectionPhotos, map[string]interface{}{
		"url": "https://example.com/p.jpg", "caption": "Hi",
	})
	s.Require().NoError(err)

	s.Eventually(func() bool {
		list, err := s.mirror.List(model.CollectionPhotos)
		return err == nil && len(list) == 1 && list[0].ID == record.ID
	}, time.Second, 5*time.Millisecond)

	list, _ := s.mirror.List(model.CollectionPhotos)
	s.Equal("Hi", list[0].Field("caption"))
	s.Equal("u1", list[0].OwnerID)
	s.False(list[0].IsFeatured)
}

func TestMirrorSuite(t *testing.T) {
	suite.Run(t, new(MirrorTestSuite))
}
