package artifact_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/companysim/cosim/internal/artifact"
	"github.com/companysim/cosim/internal/logging"
	"github.com/companysim/cosim/internal/testutil"
)

func TestLoad_RoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		name := "plain"
		if compress {
			name = "zstd"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := artifact.WriteDir(dir, testutil.Documents(), compress); err != nil {
				t.Fatalf("WriteDir failed: %v", err)
			}

			if compress {
				if _, err := os.Stat(filepath.Join(dir, artifact.MatrixFile+artifact.CompressedSuffix)); err != nil {
					t.Fatalf("expected compressed matrix file: %v", err)
				}
			}

			b, err := artifact.Load(context.Background(), artifact.NewLocalSource(dir), logging.Discard())
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			if len(b.Records) != 4 || b.Index.Len() != 4 {
				t.Errorf("expected 4 records and rows, got %d and %d", len(b.Records), b.Index.Len())
			}
			if b.Records[2].Name != "Cyber Shield" {
				t.Errorf("record order not preserved: %+v", b.Records[2])
			}
			if b.Info.Metric != "cosine" || b.Info.Dimensions != 3 || b.Info.Source != dir {
				t.Errorf("unexpected info: %+v", b.Info)
			}
			if b.Index.Row(1)[1] != 0.1 {
				t.Errorf("matrix row 1 not loaded: %v", b.Index.Row(1))
			}
		})
	}
}

func TestLoad_MissingArtifact(t *testing.T) {
	dir := t.TempDir()
	if err := artifact.WriteDir(dir, testutil.Documents(), false); err != nil {
		t.Fatal(err)
	}
	os.Remove(filepath.Join(dir, artifact.ReducerFile))

	_, err := artifact.Load(context.Background(), artifact.NewLocalSource(dir), logging.Discard())
	if !errors.Is(err, artifact.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_MalformedArtifact(t *testing.T) {
	dir := t.TempDir()
	if err := artifact.WriteDir(dir, testutil.Documents(), false); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, artifact.IndexFile), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := artifact.Load(context.Background(), artifact.NewLocalSource(dir), logging.Discard()); err == nil {
		t.Error("expected error for malformed index file")
	}
}

func TestAssemble_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *artifact.Documents)
		want   error
	}{
		{
			name:   "fewer records than rows",
			mutate: func(d *artifact.Documents) { d.Records = d.Records[:3] },
			want:   artifact.ErrMisaligned,
		},
		{
			name:   "index fitted on other matrix",
			mutate: func(d *artifact.Documents) { d.Index.NSamples = 10 },
			want:   artifact.ErrMisaligned,
		},
		{
			name:   "reducer output width",
			mutate: func(d *artifact.Documents) { d.Reducer.NComponents, d.Reducer.Components = 2, d.Reducer.Components[:8] },
			want:   artifact.ErrMisaligned,
		},
		{
			name:   "short matrix data",
			mutate: func(d *artifact.Documents) { d.Matrix.Data = d.Matrix.Data[:5] },
			want:   artifact.ErrMalformed,
		},
		{
			name:   "future version",
			mutate: func(d *artifact.Documents) { d.Matrix.Version = artifact.CurrentVersion + 1 },
			want:   artifact.ErrUnsupportedVersion,
		},
		{
			name:   "bad strip_accents",
			mutate: func(d *artifact.Documents) { d.Vectorizer.StripAccents = "latin" },
			want:   artifact.ErrMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := testutil.Documents()
			tt.mutate(&docs)

			_, err := artifact.Assemble(docs)
			if !errors.Is(err, tt.want) {
				t.Errorf("Assemble error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("unknown metric", func(t *testing.T) {
		docs := testutil.Documents()
		docs.Index.Metric = "hamming"
		if _, err := artifact.Assemble(docs); err == nil {
			t.Error("expected error for unknown metric")
		}
	})
}

func TestLocalSource_NotFound(t *testing.T) {
	src := artifact.NewLocalSource(t.TempDir())
	_, err := src.Open(context.Background(), "nope.json")
	if !errors.Is(err, artifact.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNewMinioSource_RequiresBucket(t *testing.T) {
	if _, err := artifact.NewMinioSource(artifact.MinioConfig{Endpoint: "localhost:9000"}); err == nil {
		t.Error("expected error without bucket")
	}

	src, err := artifact.NewMinioSource(artifact.MinioConfig{Endpoint: "localhost:9000", Bucket: "models", Prefix: "cosim/v1"})
	if err != nil {
		t.Fatalf("NewMinioSource failed: %v", err)
	}
	if src.String() != "s3://models/cosim/v1" {
		t.Errorf("unexpected source description %q", src.String())
	}
}
