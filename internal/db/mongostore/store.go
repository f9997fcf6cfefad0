// Package mongostore persists surveys and responses in MongoDB. Surveys embed
// their questions; responses live in their own collection keyed by survey.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/soaringjerry/surveyd/internal/api"
	"github.com/soaringjerry/surveyd/internal/logging"
	"github.com/soaringjerry/surveyd/internal/models"
)

const (
	surveysCollection   = "surveys"
	responsesCollection = "responses"
)

type Options struct {
	URI      string
	Database string
	Timeout  time.Duration
}

var _ api.Store = (*Store)(nil)

type Store struct {
	client    *mongo.Client
	surveys   *mongo.Collection
	responses *mongo.Collection
	timeout   time.Duration
	log       zerolog.Logger
}

// Connect dials MongoDB, verifies the connection and ensures indexes.
func Connect(ctx context.Context, opts Options, logger zerolog.Logger) (*Store, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(opts.URI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(cctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	st := New(client, opts.Database, logger)
	st.timeout = opts.Timeout
	if err := st.EnsureIndexes(cctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return st, nil
}

// New binds a store to an already connected client.
func New(client *mongo.Client, database string, logger zerolog.Logger) *Store {
	db := client.Database(database)
	return &Store{
		client:    client,
		surveys:   db.Collection(surveysCollection),
		responses: db.Collection(responsesCollection),
		timeout:   10 * time.Second,
		log:       logging.Component(logger, "mongo_store"),
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.responses.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "surveyId", Value: 1}, {Key: "submittedAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("create responses index: %w", err)
	}
	if _, err := s.surveys.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create surveys index: %w", err)
	}
	return nil
}

func (s *Store) CreateSurvey(ctx context.Context, sv *models.Survey) error {
	if _, err := s.surveys.InsertOne(ctx, toSurveyDocument(sv)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrSurveyExists
		}
		return fmt.Errorf("insert survey: %w", err)
	}
	return nil
}

func (s *Store) GetSurvey(ctx context.Context, id string) (*models.Survey, error) {
	var doc surveyDocument
	if err := s.surveys.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find survey: %w", err)
	}
	return doc.model(), nil
}

func (s *Store) ListSurveys(ctx context.Context) ([]*models.Survey, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.surveys.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find surveys: %w", err)
	}
	defer s.closeCursor(ctx, cursor)

	out := make([]*models.Survey, 0)
	for cursor.Next(ctx) {
		var doc surveyDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.model())
	}
	return out, cursor.Err()
}

// DeleteSurvey removes the survey and then its responses.
func (s *Store) DeleteSurvey(ctx context.Context, id string) (bool, error) {
	res, err := s.surveys.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("delete survey: %w", err)
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	if _, err := s.responses.DeleteMany(ctx, bson.M{"surveyId": id}); err != nil {
		return true, fmt.Errorf("delete responses: %w", err)
	}
	return true, nil
}

func (s *Store) AddQuestion(ctx context.Context, surveyID string, q models.Question) error {
	res, err := s.surveys.UpdateOne(ctx,
		bson.M{"_id": surveyID, "questions.id": bson.M{"$ne": q.ID}},
		bson.M{
			"$push": bson.M{"questions": toQuestionDocument(q)},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("push question: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	exists, err := s.surveyExists(ctx, surveyID)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrSurveyNotFound
	}
	return models.ErrQuestionExists
}

// UpdateSurvey replaces the editable fields and the embedded question list.
func (s *Store) UpdateSurvey(ctx context.Context, sv *models.Survey) (bool, error) {
	doc := toSurveyDocument(sv)
	res, err := s.surveys.UpdateOne(ctx,
		bson.M{"_id": sv.ID},
		bson.M{"$set": bson.M{
			"title":       doc.Title,
			"description": doc.Description,
			"questions":   doc.Questions,
			"updatedAt":   doc.UpdatedAt,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("update survey: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, surveyID string, q models.Question) error {
	res, err := s.surveys.UpdateOne(ctx,
		bson.M{"_id": surveyID, "questions.id": q.ID},
		bson.M{"$set": bson.M{
			"questions.$": toQuestionDocument(q),
			"updatedAt":   time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("set question: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	return s.missingQuestion(ctx, surveyID)
}

func (s *Store) DeleteQuestion(ctx context.Context, surveyID, questionID string) error {
	res, err := s.surveys.UpdateOne(ctx,
		bson.M{"_id": surveyID, "questions.id": questionID},
		bson.M{
			"$pull": bson.M{"questions": bson.M{"id": questionID}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("pull question: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	return s.missingQuestion(ctx, surveyID)
}

func (s *Store) missingQuestion(ctx context.Context, surveyID string) error {
	exists, err := s.surveyExists(ctx, surveyID)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrSurveyNotFound
	}
	return models.ErrQuestionNotFound
}

func (s *Store) AddResponse(ctx context.Context, r *models.Response) error {
	exists, err := s.surveyExists(ctx, r.SurveyID)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrSurveyNotFound
	}
	if _, err := s.responses.InsertOne(ctx, toResponseDocument(r)); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

// ListResponses returns the survey's responses, newest submission first.
func (s *Store) ListResponses(ctx context.Context, surveyID string) ([]*models.Response, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.responses.Find(ctx, bson.M{"surveyId": surveyID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find responses: %w", err)
	}
	defer s.closeCursor(ctx, cursor)

	out := make([]*models.Response, 0)
	for cursor.Next(ctx) {
		var doc responseDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.model())
	}
	return out, cursor.Err()
}

func (s *Store) GetResponse(ctx context.Context, surveyID, responseID string) (*models.Response, error) {
	var doc responseDocument
	if err := s.responses.FindOne(ctx, bson.M{"_id": responseID, "surveyId": surveyID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find response: %w", err)
	}
	return doc.model(), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) surveyExists(ctx context.Context, id string) (bool, error) {
	n, err := s.surveys.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count surveys: %w", err)
	}
	return n > 0, nil
}

func (s *Store) closeCursor(ctx context.Context, cursor *mongo.Cursor) {
	if err := cursor.Close(ctx); err != nil {
		s.log.Warn().Err(err).Msg("close cursor")
	}
}
