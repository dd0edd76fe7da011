package processor

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/xbanchon/image-optimizer/internal/format"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		original, optimized int64
		want                float64
	}{
		{1_000_000, 250_000, 75},
		{1000, 1000, 0},
		{1000, 1500, -50},
		{0, 100, 0},
	}

	for _, tt := range tests {
		got := Ratio(tt.original, tt.optimized)
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("Ratio(%d, %d) = %.4f, want %.2f", tt.original, tt.optimized, got, tt.want)
		}
	}
}

func TestReportString(t *testing.T) {
	r := NewReport(1_000_000, 250_000)
	if r.RatioString() != "75.00" {
		t.Errorf("ratio string: %q", r.RatioString())
	}
	if s := r.String(); !strings.Contains(s, "1.0 MB") || !strings.Contains(s, "250 kB") || !strings.Contains(s, "75.00%") {
		t.Errorf("report string: %q", s)
	}
}

func TestRequestLifecycle(t *testing.T) {
	data := pngBytes(t, testImage(32, 32))
	re := NewReEncoder(NativeEngine{}, nil)
	req := re.NewRequest(Upload{Data: data, Filename: "photo.png"})

	if req.State() != StateUploaded {
		t.Fatalf("initial state: %s", req.State())
	}

	if err := req.Decode(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.CurrentFormat() != format.PNG {
		t.Errorf("current format: %q", req.CurrentFormat())
	}
	if want := []format.Format{format.WEBP, format.JPEG}; !reflect.DeepEqual(req.Targets(), want) {
		t.Errorf("targets: got %v, want %v", req.Targets(), want)
	}

	if err := req.Choose("jpg", 85); err != nil {
		t.Fatalf("choose: %v", err)
	}
	if req.State() != StateParametersChosen {
		t.Fatalf("state after choose: %s", req.State())
	}

	if err := req.Encode(context.Background()); err != nil {
		t.Fatalf("encode: %v", err)
	}

	res, err := req.Report()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if req.State() != StateReported {
		t.Errorf("final state: %s", req.State())
	}
	if res.Artifact.Format() != format.JPEG {
		t.Errorf("artifact format: %q", res.Artifact.Format())
	}
	if res.Report.OriginalSize != int64(len(data)) {
		t.Errorf("original size: %d", res.Report.OriginalSize)
	}
	if res.Report.OptimizedSize != int64(res.Artifact.Len()) {
		t.Errorf("optimized size: %d", res.Report.OptimizedSize)
	}
}

func TestRequestRejectsOutOfOrderCalls(t *testing.T) {
	re := NewReEncoder(nil, nil)
	req := re.NewRequest(Upload{Data: pngBytes(t, testImage(8, 8))})

	if err := req.Encode(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("encode before decode: %v", err)
	}
	if _, err := req.Report(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("report before encode: %v", err)
	}
	if req.State() != StateUploaded {
		t.Errorf("out of order calls must not move the request, state %s", req.State())
	}

	if err := req.Decode(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := req.Decode(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second decode: %v", err)
	}
}

func TestRequestDecodeFailure(t *testing.T) {
	req := NewReEncoder(nil, nil).NewRequest(Upload{Data: []byte("plain text"), Filename: "fake.png"})

	err := req.Decode()
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if req.State() != StateFailed {
		t.Errorf("state: %s", req.State())
	}
	if req.Err() != err {
		t.Error("Err should return the failure")
	}
	if err := req.Choose("webp", 85); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("failed request must be terminal, got %v", err)
	}
}

func TestRequestChooseFailures(t *testing.T) {
	data := pngBytes(t, testImage(8, 8))

	t.Run("current format", func(t *testing.T) {
		req := NewReEncoder(nil, nil).NewRequest(Upload{Data: data})
		if err := req.Decode(); err != nil {
			t.Fatal(err)
		}
		err := req.Choose("PNG", 85)
		if !errors.Is(err, ErrTargetNotOffered) {
			t.Errorf("expected ErrTargetNotOffered, got %v", err)
		}
		if req.State() != StateFailed {
			t.Errorf("state: %s", req.State())
		}
	})

	t.Run("quality out of range", func(t *testing.T) {
		req := NewReEncoder(nil, nil).NewRequest(Upload{Data: data})
		if err := req.Decode(); err != nil {
			t.Fatal(err)
		}
		if err := req.Choose("webp", 0); !errors.Is(err, ErrQualityOutOfRange) {
			t.Errorf("expected ErrQualityOutOfRange, got %v", err)
		}
	})

	t.Run("nothing offerable", func(t *testing.T) {
		req := NewReEncoder(nil, nil, format.PNG).NewRequest(Upload{Data: data})
		if err := req.Decode(); err != nil {
			t.Fatal(err)
		}
		if len(req.Targets()) != 0 {
			t.Fatalf("targets: %v", req.Targets())
		}

		err := req.Choose("png", 85)
		var noTarget *NoTargetAvailableError
		if !errors.As(err, &noTarget) {
			t.Fatalf("expected NoTargetAvailableError, got %v", err)
		}
		if noTarget.Current != format.PNG {
			t.Errorf("current: %q", noTarget.Current)
		}
	})
}

func TestRequestCancelled(t *testing.T) {
	req := NewReEncoder(nil, nil).NewRequest(Upload{Data: pngBytes(t, testImage(8, 8))})
	if err := req.Decode(); err != nil {
		t.Fatal(err)
	}
	if err := req.Choose("jpeg", 85); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := req.Encode(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if req.State() != StateFailed {
		t.Errorf("state: %s", req.State())
	}
	if req.Image() != nil {
		t.Error("failed request must drop its image")
	}
}

func TestOptimize(t *testing.T) {
	data := pngBytes(t, testImage(24, 24))
	re := NewReEncoder(nil, nil)

	res, err := re.Optimize(context.Background(), Upload{Data: data, Filename: "a.png", Size: 1_000_000}, Params{Format: "webp", Quality: 85})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.SourceFormat != format.PNG {
		t.Errorf("source format: %q", res.SourceFormat)
	}
	if res.Artifact.Format() != format.WEBP {
		t.Errorf("artifact format: %q", res.Artifact.Format())
	}
	if res.Report.OriginalSize != 1_000_000 {
		t.Errorf("declared size should be the baseline, got %d", res.Report.OriginalSize)
	}

	if _, err := re.Optimize(context.Background(), Upload{Data: data}, Params{Format: "png", Quality: 85}); err == nil {
		t.Error("converting png to png should fail")
	}
}
