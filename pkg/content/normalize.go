package content

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/gestalt/pkg/errors"
)

// ValidImageFormats is the set of supported image formats.
var ValidImageFormats = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"svg":  true,
}

// MaxHeadingLevel is the deepest heading level accepted.
const MaxHeadingLevel = 6

// Normalizer converts intake packages into normalized blocks.
type Normalizer struct {
	cfg MeasureConfig
}

// NewNormalizer returns a Normalizer using cfg for measurements.
func NewNormalizer(cfg MeasureConfig) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Normalize validates pkg, resolves its intent and constraints, and returns
// the blocks sorted by sequence with computed metrics.
//
// Image assets that no image block references are appended as trailing image
// blocks in asset order so that every supplied image is placed exactly once.
// Any malformed block fails the whole package with NORMALIZATION_ERROR.
func (n *Normalizer) Normalize(pkg Package) (*Normalized, error) {
	intent, err := resolveIntent(pkg.Intent)
	if err != nil {
		return nil, err
	}
	cons, err := resolveConstraints(pkg.Constraints, intent)
	if err != nil {
		return nil, err
	}
	frame := FrameFor(cons.DocumentType, cons.Margins)
	cons.Margins = frame.Margins
	if c := frame.Content(); c.Size.Width <= 0 || c.Size.Height <= 0 {
		return nil, errors.New(errors.ErrCodeNormalization, "margins leave no content area").
			WithConstraint("margins=%+v", cons.Margins)
	}

	images, err := n.indexImages(pkg.Images)
	if err != nil {
		return nil, err
	}

	blocks := make([]Block, 0, len(pkg.Blocks)+len(pkg.Images))
	ids := make(map[string]bool, len(pkg.Blocks))
	seqs := make(map[int]string, len(pkg.Blocks))
	referenced := make(map[string]bool, len(images))
	maxSeq := -1

	for _, raw := range pkg.Blocks {
		b, err := n.checkBlock(raw, images)
		if err != nil {
			return nil, err
		}
		if ids[b.ID] {
			return nil, errors.New(errors.ErrCodeNormalization, "duplicate block id").WithBlock(b.ID)
		}
		if other, ok := seqs[b.Sequence]; ok {
			return nil, errors.New(errors.ErrCodeNormalization, "duplicate sequence %d (also used by %s)", b.Sequence, other).
				WithBlock(b.ID)
		}
		ids[b.ID] = true
		seqs[b.Sequence] = b.ID
		maxSeq = max(maxSeq, b.Sequence)
		if b.Image != nil {
			referenced[b.Image.ID] = true
		}
		blocks = append(blocks, b)
	}

	for _, img := range pkg.Images {
		if referenced[img.ID] {
			continue
		}
		if ids[img.ID] {
			return nil, errors.New(errors.ErrCodeNormalization, "unreferenced image id collides with a block id").
				WithBlock(img.ID)
		}
		maxSeq++
		ref := images[img.ID]
		ids[img.ID] = true
		blocks = append(blocks, Block{ID: img.ID, Kind: KindImage, Sequence: maxSeq, Image: &ref})
	}

	slices.SortFunc(blocks, func(a, b Block) int { return a.Sequence - b.Sequence })

	wrap := frame.Content().Size.Width
	for i := range blocks {
		b := &blocks[i]
		if b.Kind == KindImage {
			b.Metrics = n.cfg.measureImage(b.Image.WidthPx, b.Image.HeightPx, wrap)
		} else {
			b.Metrics = n.cfg.measureText(b.Kind, b.Text, b.Hierarchy(), wrap)
		}
	}

	return &Normalized{
		SessionID:    pkg.SessionID,
		DocumentType: cons.DocumentType,
		Frame:        frame,
		Intent:       intent,
		Constraints:  cons,
		Blocks:       blocks,
	}, nil
}

func (n *Normalizer) checkBlock(raw RawBlock, images map[string]ImageRef) (Block, error) {
	if err := errors.ValidateID(raw.ID); err != nil {
		return Block{}, errors.Wrap(errors.ErrCodeNormalization, err, "invalid block id").WithBlock(raw.ID)
	}
	kind := Kind(strings.ToLower(strings.TrimSpace(string(raw.Kind))))
	if !ValidKinds[kind] {
		return Block{}, errors.New(errors.ErrCodeNormalization, "unknown block kind %q", raw.Kind).WithBlock(raw.ID)
	}
	if raw.Level < 0 || raw.Level > MaxHeadingLevel {
		return Block{}, errors.New(errors.ErrCodeNormalization, "level %d out of range 0-%d", raw.Level, MaxHeadingLevel).
			WithBlock(raw.ID)
	}
	if raw.Sequence < 0 {
		return Block{}, errors.New(errors.ErrCodeNormalization, "negative sequence %d", raw.Sequence).WithBlock(raw.ID)
	}

	b := Block{ID: raw.ID, Kind: kind, Sequence: raw.Sequence}
	if kind == KindHeading {
		b.Level = raw.Level
	}

	if kind == KindImage {
		ref, ok := images[raw.ImageID]
		if !ok {
			return Block{}, errors.New(errors.ErrCodeNormalization, "image block references unknown image %q", raw.ImageID).
				WithBlock(raw.ID)
		}
		b.Image = &ref
		b.Text = CleanText(raw.Text)
		return b, nil
	}

	text := CleanText(raw.Text)
	if text == "" {
		return Block{}, errors.New(errors.ErrCodeNormalization, "%s block has no text", kind).WithBlock(raw.ID)
	}
	if utf8.RuneCountInString(text) > n.cfg.MaxTextLength {
		return Block{}, errors.New(errors.ErrCodeNormalization, "text exceeds %d characters", n.cfg.MaxTextLength).
			WithBlock(raw.ID)
	}
	b.Text = text
	return b, nil
}

func (n *Normalizer) indexImages(assets []ImageAsset) (map[string]ImageRef, error) {
	out := make(map[string]ImageRef, len(assets))
	for _, a := range assets {
		if err := errors.ValidateID(a.ID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeNormalization, err, "invalid image id").WithBlock(a.ID)
		}
		if _, dup := out[a.ID]; dup {
			return nil, errors.New(errors.ErrCodeNormalization, "duplicate image id").WithBlock(a.ID)
		}
		if err := errors.ValidateImageURI(a.URI); err != nil {
			return nil, errors.Wrap(errors.ErrCodeNormalization, err, "invalid image uri").WithBlock(a.ID)
		}
		format := strings.ToLower(strings.TrimSpace(a.Format))
		if !ValidImageFormats[format] {
			return nil, errors.New(errors.ErrCodeNormalization, "unsupported image format %q", a.Format).WithBlock(a.ID)
		}
		limit := n.cfg.MaxImagePixels
		if a.WidthPx < 1 || a.WidthPx > limit || a.HeightPx < 1 || a.HeightPx > limit {
			return nil, errors.New(errors.ErrCodeNormalization, "image dimensions %dx%d out of range 1-%d",
				a.WidthPx, a.HeightPx, limit).WithBlock(a.ID)
		}
		out[a.ID] = ImageRef{
			ID:       a.ID,
			URI:      a.URI,
			Format:   format,
			WidthPx:  a.WidthPx,
			HeightPx: a.HeightPx,
			AltText:  strings.TrimSpace(a.AltText),
		}
	}
	return out, nil
}

// resolveIntent lower-cases and trims the intent, sorts and dedupes goals
// and defaults the purpose to "report".
func resolveIntent(in DesignIntent) (DesignIntent, error) {
	out := DesignIntent{
		Purpose:  strings.ToLower(strings.TrimSpace(in.Purpose)),
		Audience: strings.ToLower(strings.TrimSpace(in.Audience)),
		Tone:     strings.ToLower(strings.TrimSpace(in.Tone)),
		Density:  Density(strings.ToLower(strings.TrimSpace(string(in.Density)))),
	}
	if out.Purpose == "" {
		out.Purpose = PurposeReport
	}
	if !ValidPurposes[out.Purpose] {
		return DesignIntent{}, errors.New(errors.ErrCodeNormalization, "unknown design purpose %q", in.Purpose).
			WithConstraint("purpose")
	}
	if out.Density != "" && !ValidDensities[out.Density] {
		return DesignIntent{}, errors.New(errors.ErrCodeNormalization, "unknown density %q", in.Density).
			WithConstraint("design_intent.density")
	}
	for _, g := range in.Goals {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			out.Goals = append(out.Goals, g)
		}
	}
	slices.Sort(out.Goals)
	out.Goals = slices.Compact(out.Goals)
	return out, nil
}

// resolveConstraints applies defaults. Constraint density wins over intent
// density; document type is derived from the purpose unless set explicitly.
func resolveConstraints(in Constraints, intent DesignIntent) (Constraints, error) {
	out := in

	out.DocumentType = DocumentType(strings.ToLower(strings.TrimSpace(string(in.DocumentType))))
	switch {
	case out.DocumentType == "" && intent.Purpose == PurposePresentation:
		out.DocumentType = DocumentPresentation
	case out.DocumentType == "":
		out.DocumentType = DocumentWord
	case !ValidDocumentTypes[out.DocumentType]:
		return Constraints{}, errors.New(errors.ErrCodeNormalization, "unknown document type %q", in.DocumentType).
			WithConstraint("document_type")
	}

	out.Density = Density(strings.ToLower(strings.TrimSpace(string(in.Density))))
	switch {
	case out.Density == "" && intent.Density != "":
		out.Density = intent.Density
	case out.Density == "":
		out.Density = DensityBalanced
	case !ValidDensities[out.Density]:
		return Constraints{}, errors.New(errors.ErrCodeNormalization, "unknown density %q", in.Density).
			WithConstraint("density")
	}

	switch {
	case in.MaxPages < 0:
		return Constraints{}, errors.New(errors.ErrCodeNormalization, "max pages must be positive").
			WithConstraint("max_pages_or_slides=%d", in.MaxPages)
	case in.MaxPages == 0:
		out.MaxPages = DefaultMaxPages
	}

	switch {
	case in.MinSpacing < 0:
		return Constraints{}, errors.New(errors.ErrCodeNormalization, "min spacing must not be negative").
			WithConstraint("min_spacing=%g", in.MinSpacing)
	case in.MinSpacing == 0:
		out.MinSpacing = DefaultMinSpacing
	}

	m := in.Margins
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return Constraints{}, errors.New(errors.ErrCodeNormalization, "margins must not be negative").
			WithConstraint("margins=%+v", m)
	}
	return out, nil
}
