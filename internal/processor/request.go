package processor

import (
	"context"
	"fmt"

	"github.com/xbanchon/image-optimizer/internal/format"
)

type State int

const (
	StateUploaded State = iota
	StateDecoded
	StateParametersChosen
	StateEncoded
	StateReported
	StateFailed
)

var stateNames = map[State]string{
	StateUploaded:         "uploaded",
	StateDecoded:          "decoded",
	StateParametersChosen: "parameters_chosen",
	StateEncoded:          "encoded",
	StateReported:         "reported",
	StateFailed:           "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Upload is the raw input of one optimization request. Size is the declared
// upload length; zero means len(Data).
type Upload struct {
	Data     []byte
	Filename string
	Size     int64
}

func (u Upload) size() int64 {
	if u.Size > 0 {
		return u.Size
	}
	return int64(len(u.Data))
}

type Params struct {
	Format  string
	Quality int
}

type Result struct {
	SourceFormat format.Format
	Source       *ImageHandle
	Artifact     *EncodedArtifact
	Report       CompressionReport
}

// Request walks one upload through
// uploaded -> decoded -> parameters_chosen -> encoded -> reported.
// Any failure moves it to failed, which is terminal.
type Request struct {
	re      *ReEncoder
	upload  Upload
	state   State
	err     error
	image   *ImageHandle
	current format.Format
	targets []format.Format
	target  format.Format
	quality int
	result  *EncodedArtifact
}

func (r *ReEncoder) NewRequest(u Upload) *Request {
	return &Request{re: r, upload: u, state: StateUploaded}
}

func (q *Request) State() State {
	return q.state
}

// Err returns the error that failed the request, if any.
func (q *Request) Err() error {
	return q.err
}

func (q *Request) CurrentFormat() format.Format {
	return q.current
}

func (q *Request) Targets() []format.Format {
	return append([]format.Format(nil), q.targets...)
}

func (q *Request) Image() *ImageHandle {
	return q.image
}

func (q *Request) advance(from, to State) error {
	if q.state != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, q.state, to)
	}
	return nil
}

func (q *Request) fail(err error) error {
	q.state = StateFailed
	q.err = err
	q.image = nil
	q.result = nil
	return err
}

func (q *Request) Decode() error {
	if err := q.advance(StateUploaded, StateDecoded); err != nil {
		return err
	}

	img, err := DecodeLimited(q.upload.Data, q.re.maxPixels)
	if err != nil {
		return q.fail(err)
	}

	q.image = img
	q.current = format.DetectCurrentFormat(img.Format, q.upload.Filename)
	q.targets = format.OfferableTargets(q.current, q.re.targets...)
	q.state = StateDecoded
	return nil
}

// Choose fixes the target format and quality. The target must be one of
// Targets and quality must lie within [MinQuality, MaxQuality].
func (q *Request) Choose(target string, quality int) error {
	if err := q.advance(StateDecoded, StateParametersChosen); err != nil {
		return err
	}

	if len(q.targets) == 0 {
		return q.fail(&NoTargetAvailableError{Current: q.current})
	}

	f := format.Canonicalize(target)
	if !format.IsOfferable(q.current, f, q.targets...) {
		return q.fail(&EncodingError{
			Format: f,
			Reason: fmt.Sprintf("not offered for %s source", q.current),
			Err:    ErrTargetNotOffered,
		})
	}

	if _, err := NativeQuality(f, quality); err != nil {
		return q.fail(err)
	}

	q.target = f
	q.quality = quality
	q.state = StateParametersChosen
	return nil
}

func (q *Request) Encode(ctx context.Context) error {
	if err := q.advance(StateParametersChosen, StateEncoded); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return q.fail(err)
	}

	artifact, err := q.re.Reencode(q.image, string(q.target), q.quality)
	if err != nil {
		return q.fail(err)
	}

	if err := ctx.Err(); err != nil {
		return q.fail(err)
	}

	q.result = artifact
	q.state = StateEncoded
	return nil
}

func (q *Request) Report() (*Result, error) {
	if err := q.advance(StateEncoded, StateReported); err != nil {
		return nil, err
	}

	q.state = StateReported
	return &Result{
		SourceFormat: q.current,
		Source:       q.image,
		Artifact:     q.result,
		Report:       NewReport(q.upload.size(), int64(q.result.Len())),
	}, nil
}

// Optimize runs a whole request for u with parameters p.
func (r *ReEncoder) Optimize(ctx context.Context, u Upload, p Params) (*Result, error) {
	req := r.NewRequest(u)

	if err := req.Decode(); err != nil {
		return nil, err
	}
	if err := req.Choose(p.Format, p.Quality); err != nil {
		return nil, err
	}
	if err := req.Encode(ctx); err != nil {
		return nil, err
	}

	res, err := req.Report()
	if err != nil {
		return nil, err
	}

	r.logger.Infow("image optimized",
		"filename", u.Filename,
		"source_format", res.SourceFormat,
		"target_format", res.Artifact.Format(),
		"quality", p.Quality,
		"report", res.Report.String(),
	)

	return res, nil
}
