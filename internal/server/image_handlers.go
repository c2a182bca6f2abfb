package server

import (
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"

	"github.com/MeKo-Tech/pocode/internal/barcode"
	"github.com/MeKo-Tech/pocode/internal/common"
)

// decodeImageHandler decodes symbols from a multipart upload in the
// "image" field. Optional form values: format, try_harder.
func (s *Server) decodeImageHandler(w http.ResponseWriter, r *http.Request) {
	img, opts, err := s.parseImageRequest(w, r)
	if err != nil {
		recordDecode(barcode.FormatUnknown, nil, err)
		s.writeError(w, err)
		return
	}

	results, err := s.backend.Decode(r.Context(), img, opts)
	format := barcode.FormatUnknown
	if len(opts.Formats) == 1 {
		format = opts.Formats[0]
	}
	recordImageDecode(format, results, err)
	if err != nil {
		s.writeError(w, err)
		return
	}

	b := img.Bounds()
	s.writeJSON(w, http.StatusOK, ImageDecodeResponse{
		Backend: s.backend.Name(),
		Width:   b.Dx(),
		Height:  b.Dy(),
		Results: results,
	})
}

func (s *Server) parseImageRequest(w http.ResponseWriter, r *http.Request) (image.Image, barcode.ImageOptions, error) {
	var opts barcode.ImageOptions
	limit := s.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, opts, err
		}
		return nil, opts, fmt.Errorf("%w: failed to parse form data: %w", common.ErrArgument, err)
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, opts, fmt.Errorf("%w: no image file provided", common.ErrArgument)
	}
	defer func() { _ = file.Close() }()

	uploadSizeBytes.Observe(float64(header.Size))

	img, err := barcode.ReadImage(file)
	if err != nil {
		return nil, opts, fmt.Errorf("%w: invalid image: %w", common.ErrArgument, err)
	}

	if name := r.FormValue("format"); name != "" {
		f, err := barcode.ParseFormat(name)
		if err != nil {
			return nil, opts, err
		}
		if f != barcode.FormatUnknown {
			opts.Formats = []barcode.Format{f}
		}
	}
	if v := r.FormValue("try_harder"); v != "" {
		opts.TryHarder, err = strconv.ParseBool(v)
		if err != nil {
			return nil, opts, fmt.Errorf("%w: try_harder: %w", common.ErrArgument, err)
		}
	}
	return img, opts, nil
}
