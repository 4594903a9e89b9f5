// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"

	"github.com/jaycherian/gcp-go-call-analysis/internal/core/commands"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/cor"
	"github.com/jaycherian/gcp-go-call-analysis/internal/core/model"
)

// AnalysisRequest is one synchronous analysis. Source, when set, names the
// call and makes the analysis id stable across re-submissions.
type AnalysisRequest struct {
	PromptRequest
	Source string
}

// AnalysisService runs analyses on demand and serves stored results. Only
// one analysis runs at a time per Locker; callers that find it held get
// ErrBusy.
type AnalysisService struct {
	Workflow      cor.Command
	Repository    AnalysisRepository
	Locker        Locker
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient
	SignerEmail   string
}

// Analyze builds the prompt for raw, asks the model and stores the answer.
func (s *AnalysisService) Analyze(ctx context.Context, raw []byte, req AnalysisRequest) (*model.CallAnalysis, error) {
	release, ok, err := s.Locker.TryLock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire analysis lock: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}
	defer release()

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, raw)
	if req.Locale != "" {
		chainCtx.Add(commands.LocaleParam, req.Locale)
	}
	if req.Strategy != "" {
		chainCtx.Add(commands.StrategyParam, req.Strategy)
	}
	if req.Source != "" {
		chainCtx.Add(commands.SourceParam, req.Source)
	}

	s.Workflow.Execute(chainCtx)
	if err := chainCtx.Err(); err != nil {
		return nil, err
	}
	analysis, ok := chainCtx.Get(commands.AnalysisParam).(*model.CallAnalysis)
	if !ok {
		return nil, fmt.Errorf("analysis workflow produced no result")
	}
	return analysis, nil
}

// Get returns a stored analysis or ErrNotFound.
func (s *AnalysisService) Get(ctx context.Context, id string) (*model.CallAnalysis, error) {
	return s.Repository.Get(ctx, id)
}

// PromptURL returns a signed GET URL for the uploaded prompt of analysis id.
func (s *AnalysisService) PromptURL(ctx context.Context, id string, expires time.Duration) (string, error) {
	analysis, err := s.Repository.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if analysis.PromptUrl == "" {
		return "", fmt.Errorf("%w: analysis %s has no uploaded prompt", ErrNotFound, id)
	}
	return s.GenerateSignedURL(ctx, analysis.PromptUrl, expires)
}

// GenerateSignedURL signs a gs://bucket/object URI with the V4 scheme. When
// SignerEmail is set the signature comes from the IAM Credentials API, so no
// local key is needed.
func (s *AnalysisService) GenerateSignedURL(ctx context.Context, gcsURI string, expires time.Duration) (string, error) {
	if s.StorageClient == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	bucketName, objectName, err := SplitGCSURI(gcsURI)
	if err != nil {
		return "", err
	}

	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expires),
	}
	if s.SignerEmail != "" && s.IAMClient != nil {
		opts.GoogleAccessID = s.SignerEmail
		opts.SignBytes = func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		}
	}

	u, err := s.StorageClient.Bucket(bucketName).SignedURL(objectName, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", bucketName, objectName, err)
	}
	return u, nil
}

// SplitGCSURI splits gs://bucket/path/to/object into bucket and object.
func SplitGCSURI(gcsURI string) (bucket string, object string, err error) {
	const prefix = "gs://"
	if !strings.HasPrefix(gcsURI, prefix) {
		return "", "", fmt.Errorf("invalid GCS URI format: %s", gcsURI)
	}
	parts := strings.SplitN(strings.TrimPrefix(gcsURI, prefix), "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI: unable to determine bucket and object from %s", gcsURI)
	}
	return parts[0], parts[1], nil
}
