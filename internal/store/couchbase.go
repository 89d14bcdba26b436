package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

// stateDocument wraps a single key's value so every document has the same shape.
type stateDocument struct {
	Value interface{} `json:"value"`
}

// CouchbaseBackend persists participation state in a Couchbase bucket, one
// document per key.
type CouchbaseBackend struct {
	cluster    *gocb.Cluster
	bucket     *gocb.Bucket
	collection *gocb.Collection
}

// NewCouchbaseBackend connects to the cluster and opens the given bucket.
func NewCouchbaseBackend(url, username, password, bucketName string) (*CouchbaseBackend, error) {
	cluster, err := gocb.Connect(url, gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: username,
			Password: password,
		},
		TimeoutsConfig: gocb.TimeoutsConfig{
			ConnectTimeout: 60 * time.Second,
			KVTimeout:      5 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Couchbase: %w", err)
	}

	bucket := cluster.Bucket(bucketName)
	err = bucket.WaitUntilReady(30*time.Second, &gocb.WaitUntilReadyOptions{
		ServiceTypes: []gocb.ServiceType{gocb.ServiceTypeKeyValue},
	})
	if err != nil {
		return nil, fmt.Errorf("bucket %q is not accessible: %w", bucketName, err)
	}

	log.Info().
		Str("couchbase_url", url).
		Str("bucket", bucketName).
		Msg("State store connected")

	return &CouchbaseBackend{
		cluster:    cluster,
		bucket:     bucket,
		collection: bucket.DefaultCollection(),
	}, nil
}

// Get fetches one document per requested key. Missing documents are treated
// as absent keys, not errors.
func (b *CouchbaseBackend) Get(ctx context.Context, keys ...string) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		doc, err := b.collection.Get(key, &gocb.GetOptions{Context: ctx})
		if err != nil {
			if errors.Is(err, gocb.ErrDocumentNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to get document %s: %w", key, err)
		}

		var content stateDocument
		if err := doc.Content(&content); err != nil {
			return nil, fmt.Errorf("failed to parse document %s: %w", key, err)
		}
		result[key] = content.Value
	}
	return result, nil
}

// Set upserts one document per key.
func (b *CouchbaseBackend) Set(ctx context.Context, items map[string]interface{}) error {
	for key, value := range items {
		_, err := b.collection.Upsert(key, stateDocument{Value: value}, &gocb.UpsertOptions{Context: ctx})
		if err != nil {
			return fmt.Errorf("failed to upsert document %s: %w", key, err)
		}
	}
	return nil
}

// Close shuts down the cluster connection.
func (b *CouchbaseBackend) Close() error {
	return b.cluster.Close(nil)
}
