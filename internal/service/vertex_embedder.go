package service

import (
	"context"
	"errors"
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"
)

const vertexDimension = 768

// VertexEmbedder uses Google's text-embedding-005 model to generate embeddings.
type VertexEmbedder struct {
	client    *aiplatform.PredictionClient
	modelName string
}

// NewVertexEmbedder creates the Vertex AI prediction client. credentialsFile
// may be empty, in which case application default credentials apply.
func NewVertexEmbedder(ctx context.Context, projectID, location, credentialsFile string) (*VertexEmbedder, error) {
	if projectID == "" {
		return nil, errors.New("GCP_PROJECT_ID is not set")
	}
	if location == "" {
		location = "us-central1"
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := aiplatform.NewPredictionClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &VertexEmbedder{
		client:    client,
		modelName: fmt.Sprintf("projects/%s/locations/%s/publishers/google/models/text-embedding-005", projectID, location),
	}, nil
}

// Embed generates an embedding for a query text, using task_type
// "RETRIEVAL_QUERY" so it aligns with document embeddings.
func (v *VertexEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := v.predict(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch generates document embeddings for a batch of texts in one
// prediction request. Predictions come back in instance order.
func (v *VertexEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return v.predict(ctx, texts, "RETRIEVAL_DOCUMENT")
}

func (v *VertexEmbedder) predict(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	instances := make([]*structpb.Value, len(texts))
	for i, text := range texts {
		instance, err := structpb.NewStruct(map[string]interface{}{
			"content":   truncate(text, maxEmbeddingChars),
			"task_type": taskType,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create instance: %w", err)
		}
		instances[i] = structpb.NewStructValue(instance)
	}

	resp, err := v.client.Predict(ctx, &aiplatformpb.PredictRequest{
		Endpoint:  v.modelName,
		Instances: instances,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction: %w", err)
	}
	if len(resp.Predictions) != len(texts) {
		return nil, fmt.Errorf("vertex returned %d predictions for %d inputs", len(resp.Predictions), len(texts))
	}

	vectors := make([][]float32, len(resp.Predictions))
	for i, prediction := range resp.Predictions {
		embeddings := prediction.GetStructValue().GetFields()["embeddings"].GetStructValue()
		values := embeddings.GetFields()["values"].GetListValue().GetValues()
		if len(values) == 0 {
			return nil, fmt.Errorf("vertex prediction %d carries no embedding values", i)
		}
		vector := make([]float32, len(values))
		for j, val := range values {
			vector[j] = float32(val.GetNumberValue())
		}
		vectors[i] = vector
	}
	return vectors, nil
}

// Dimension returns the vector length of text-embedding-005.
func (v *VertexEmbedder) Dimension() int { return vertexDimension }

// Close releases the Vertex AI client resources.
func (v *VertexEmbedder) Close() error {
	return v.client.Close()
}
