package predict

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"emotionapi/internal/metrics"
	"emotionapi/internal/model"
)

// MockVectorizer is a mock implementation of model.Vectorizer
type MockVectorizer struct {
	mock.Mock
}

func (m *MockVectorizer) Transform(ctx context.Context, docs []string) ([]model.SparseVector, error) {
	args := m.Called(ctx, docs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SparseVector), args.Error(1)
}

func (m *MockVectorizer) Dimensions() int {
	return m.Called().Int(0)
}

// MockClassifier is a mock implementation of model.Classifier
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Predict(ctx context.Context, rows []model.SparseVector) ([]model.Label, error) {
	args := m.Called(ctx, rows)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Label), args.Error(1)
}

func (m *MockClassifier) NumFeatures() int {
	return m.Called().Int(0)
}

func (m *MockClassifier) Classes() []model.Label {
	return m.Called().Get(0).([]model.Label)
}

func newEmotionService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	vec, err := model.NewTfidfVectorizer(model.VectorizerArtifact{
		Vocabulary: map[string]int{"happy": 0, "furious": 1, "cry": 2},
		IDF:        []float64{1.1, 1.4, 1.2},
	})
	require.NoError(t, err)
	clf, err := model.NewLinearClassifier(model.ClassifierArtifact{
		Kind:      model.KindLinear,
		Classes:   []model.Label{"anger", "joy", "sadness"},
		Coef:      [][]float64{{-1, 3, -1}, {3, -1, -1}, {-1, -1, 3}},
		Intercept: []float64{0, 0.01, 0},
	})
	require.NoError(t, err)
	require.NoError(t, model.CheckCompatible(vec, clf))
	return New(vec, clf, opts...)
}

func TestService_Predict(t *testing.T) {
	t.Run("feeds a one-element batch through both artifacts", func(t *testing.T) {
		mv := new(MockVectorizer)
		mc := new(MockClassifier)
		row := model.SparseVector{Indices: []int{0}, Values: []float64{1}}
		mv.On("Transform", mock.Anything, []string{"I am so happy today"}).Return([]model.SparseVector{row}, nil)
		mc.On("Predict", mock.Anything, []model.SparseVector{row}).Return([]model.Label{"joy"}, nil)

		res, err := New(mv, mc).Predict(context.Background(), "I am so happy today")

		require.NoError(t, err)
		assert.Equal(t, Result{Text: "I am so happy today", Emotion: "joy"}, res)
		mv.AssertExpectations(t)
		mc.AssertExpectations(t)
	})

	t.Run("propagates vectorizer failures", func(t *testing.T) {
		mv := new(MockVectorizer)
		mc := new(MockClassifier)
		boom := errors.New("empty vocabulary")
		mv.On("Transform", mock.Anything, mock.Anything).Return(nil, boom)
		before := testutil.ToFloat64(metrics.PredictionErrors)

		_, err := New(mv, mc).Predict(context.Background(), "x")

		assert.ErrorIs(t, err, boom)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.PredictionErrors))
		mc.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
	})

	t.Run("propagates classifier failures", func(t *testing.T) {
		mv := new(MockVectorizer)
		mc := new(MockClassifier)
		boom := errors.New("feature index out of range")
		mv.On("Transform", mock.Anything, mock.Anything).Return([]model.SparseVector{{}}, nil)
		mc.On("Predict", mock.Anything, mock.Anything).Return(nil, boom)

		_, err := New(mv, mc).Predict(context.Background(), "x")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("rejects a batch of the wrong size", func(t *testing.T) {
		mv := new(MockVectorizer)
		mc := new(MockClassifier)
		mv.On("Transform", mock.Anything, mock.Anything).Return([]model.SparseVector{}, nil)

		_, err := New(mv, mc).Predict(context.Background(), "x")
		assert.Error(t, err)
	})

	t.Run("returns early on a done context", func(t *testing.T) {
		mv := new(MockVectorizer)
		mc := new(MockClassifier)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := New(mv, mc).Predict(ctx, "x")

		assert.ErrorIs(t, err, context.Canceled)
		mv.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything)
	})
}

func TestService_PredictWithArtifacts(t *testing.T) {
	svc := newEmotionService(t)
	ctx := context.Background()

	t.Run("echoes the input text", func(t *testing.T) {
		for _, text := range []string{"I am so happy today", "", "  spaced  ", "émoji 😀", "FURIOUS!!!"} {
			res, err := svc.Predict(ctx, text)
			require.NoError(t, err)
			assert.Equal(t, text, res.Text)
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		first, err := svc.Predict(ctx, "happy but I cry")
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := svc.Predict(ctx, "happy but I cry")
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("labels come from the class set", func(t *testing.T) {
		res, err := svc.Predict(ctx, "I am so happy today")
		require.NoError(t, err)
		assert.Equal(t, model.Label("joy"), res.Emotion)
		assert.Contains(t, svc.Classes(), res.Emotion)
	})

	t.Run("accepts empty text", func(t *testing.T) {
		res, err := svc.Predict(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, model.Label("joy"), res.Emotion)
	})

	t.Run("reports dimensions", func(t *testing.T) {
		assert.Equal(t, 3, svc.Dimensions())
		assert.Equal(t, 3, svc.VocabularySize())
	})
}

func TestService_Cache(t *testing.T) {
	mv := new(MockVectorizer)
	mc := new(MockClassifier)
	mv.On("Transform", mock.Anything, []string{"so angry"}).Return([]model.SparseVector{{}}, nil).Once()
	mc.On("Predict", mock.Anything, mock.Anything).Return([]model.Label{"anger"}, nil).Once()

	cache := NewResultCache(8, time.Minute)
	svc := New(mv, mc, WithCache(cache))

	first, err := svc.Predict(context.Background(), "so angry")
	require.NoError(t, err)
	second, err := svc.Predict(context.Background(), "so angry")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Size())
	mv.AssertNumberOfCalls(t, "Transform", 1)
	mc.AssertNumberOfCalls(t, "Predict", 1)
}
