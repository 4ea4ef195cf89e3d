package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"net/http"
	"path/filepath"
	"strings"

	"gyma/internal/models"
	"gyma/internal/repository"
	"gyma/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
)

const (
	MaxPictureBytes = 5 * 1024 * 1024

	LargePictureSize   = 1000
	LargePictureBytes  = 150 * 1024
	MediumPictureSize  = 200
	MediumPictureBytes = 50 * 1024

	startQuality = 95
	qualityStep  = 5
	minQuality   = 10
)

// PictureInput is an uploaded profile picture.
type PictureInput struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageService turns uploads into the large and medium profile pictures.
type ImageService struct {
	persons repository.PersonRepository
	store   storage.Store
}

// NewImageService returns a new ImageService.
func NewImageService(persons repository.PersonRepository, store storage.Store) *ImageService {
	return &ImageService{persons: persons, store: store}
}

// UploadProfilePicture replaces the caller's pictures. The previous pair is
// archived before the new paths are stored.
func (s *ImageService) UploadProfilePicture(ctx context.Context, callerID uint, in PictureInput) (*models.Person, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if len(in.Content) > MaxPictureBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", MaxPictureBytes/(1024*1024)))
	}
	if !isAllowedPictureExt(in.Filename) {
		return nil, models.NewValidationError("Only jpg, jpeg, png and webp files are allowed")
	}

	person, err := s.persons.GetByID(ctx, callerID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Create a profile first").WithReason(models.ReasonProfileRequired)
		}
		return nil, err
	}

	decoded, err := decodePicture(in.Content)
	if err != nil {
		return nil, err
	}
	square := cropSquare(decoded)

	large, _, err := compressJPEG(resizeToFit(square, LargePictureSize), LargePictureBytes)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	medium, _, err := compressJPEG(resizeToFit(square, MediumPictureSize), MediumPictureBytes)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + ".jpg"
	largeKey, err := s.store.Put(ctx, storage.AreaLarge, name, large, "image/jpeg")
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	mediumKey, err := s.store.Put(ctx, storage.AreaMedium, name, medium, "image/jpeg")
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	for _, old := range []string{person.PfPathL, person.PfPathM} {
		if err := s.store.Archive(ctx, old); err != nil {
			return nil, models.NewInternalError(fmt.Errorf("archive previous picture: %w", err))
		}
	}
	if err := s.persons.SetPicturePaths(ctx, callerID, largeKey, mediumKey); err != nil {
		return nil, err
	}
	person.PfPathL = largeKey
	person.PfPathM = mediumKey
	return person, nil
}

func isAllowedPictureExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

func decodePicture(content []byte) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	switch http.DetectContentType(content) {
	case "image/webp":
		img, err = webp.Decode(bytes.NewReader(content))
	case "image/jpeg", "image/png":
		img, _, err = image.Decode(bytes.NewReader(content))
	default:
		return nil, models.NewValidationError("Invalid image type")
	}
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	return img, nil
}

// cropSquare keeps the centred square of the shorter side.
func cropSquare(src image.Image) image.Image {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	x := b.Min.X + (b.Dx()-side)/2
	y := b.Min.Y + (b.Dy()-side)/2

	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

// resizeToFit scales a square image down to size. Smaller images are kept.
func resizeToFit(src image.Image, size int) image.Image {
	b := src.Bounds()
	if b.Dx() <= size && b.Dy() <= size {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

// compressJPEG lowers the quality until the encoding fits maxBytes or the
// quality floor is reached.
func compressJPEG(img image.Image, maxBytes int) ([]byte, int, error) {
	quality := startQuality
	for {
		buf := bytes.NewBuffer(nil)
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, 0, err
		}
		if buf.Len() <= maxBytes || quality <= minQuality {
			return buf.Bytes(), quality, nil
		}
		quality -= qualityStep
	}
}
