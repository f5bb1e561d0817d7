package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"cmpimg/types"

	"gocv.io/x/gocv"
)

var (
	ErrEmptyImage      = errors.New("image is empty")
	ErrShapeMismatch   = errors.New("images have different dimensions")
	ErrChannelMismatch = errors.New("images need the same number of channels (RGB vs grayscale, RGBA vs RGB, ...)")
	ErrWindowTooLarge  = errors.New("image is smaller than the SSIM window")
)

// SSIMOptions mirrors the parameters of the windowed SSIM definition
type SSIMOptions struct {
	// Gaussian selects a Gaussian-weighted window instead of a uniform one
	Gaussian bool
	// WinSize is the side of the uniform window; must be odd
	WinSize int
	// Sigma is the Gaussian standard deviation; the window spans 3.5 sigma
	Sigma float64
	K1    float64
	K2    float64
	// DataRange is the dynamic range L of the sample values
	DataRange float64
	// SampleCovariance normalizes (co)variances by NP/(NP-1)
	SampleCovariance bool
}

// DefaultSSIMOptions returns the standard uniform 7x7 configuration
func DefaultSSIMOptions() SSIMOptions {
	return SSIMOptions{
		WinSize:          7,
		Sigma:            1.5,
		K1:               0.01,
		K2:               0.03,
		DataRange:        2.0,
		SampleCovariance: true,
	}
}

// WindowSize returns the effective side length of the comparison window
func (o SSIMOptions) WindowSize() int {
	if o.Gaussian {
		radius := int(3.5*o.Sigma + 0.5)
		return 2*radius + 1
	}
	return o.WinSize
}

// CompareImages computes the SSIM of two loaded images. When their sizes
// differ, each is resized to the other's size and the two scores are
// averaged. Failures are returned as ComputationError naming both files.
func CompareImages(a, b *Image, opts SSIMOptions) (float64, error) {
	score, err := compareMats(a.Mat, b.Mat, opts)
	if err != nil {
		return 0, &types.ComputationError{PathA: a.Info.Path, PathB: b.Info.Path, Err: err}
	}
	return score, nil
}

func compareMats(a, b gocv.Mat, opts SSIMOptions) (float64, error) {
	if a.Empty() || b.Empty() {
		return 0, ErrEmptyImage
	}
	if a.Channels() != b.Channels() {
		return 0, fmt.Errorf("%w: %d vs %d", ErrChannelMismatch, a.Channels(), b.Channels())
	}

	if a.Rows() == b.Rows() && a.Cols() == b.Cols() {
		return ComputeSSIM(a, b, opts)
	}

	bResized := resizeTo(b, a)
	defer bResized.Close()
	first, err := ComputeSSIM(a, bResized, opts)
	if err != nil {
		return 0, err
	}

	aResized := resizeTo(a, b)
	defer aResized.Close()
	second, err := ComputeSSIM(aResized, b, opts)
	if err != nil {
		return 0, err
	}

	return (first + second) / 2.0, nil
}

// resizeTo resamples src bilinearly to the size of like. Axes that shrink
// are first smoothed with a Gaussian of sigma (factor-1)/2, truncated at
// four sigma, so downscaling does not alias.
func resizeTo(src, like gocv.Mat) gocv.Mat {
	sigmaX := antiAliasSigma(src.Cols(), like.Cols())
	sigmaY := antiAliasSigma(src.Rows(), like.Rows())

	input := src
	if sigmaX > 0 || sigmaY > 0 {
		smoothed := gocv.NewMat()
		defer smoothed.Close()
		ksize := image.Point{X: antiAliasKernelSize(sigmaX), Y: antiAliasKernelSize(sigmaY)}
		gocv.GaussianBlur(src, &smoothed, ksize, sigmaX, sigmaY, gocv.BorderReflect101)
		input = smoothed
	}

	dst := gocv.NewMat()
	gocv.Resize(input, &dst, image.Point{X: like.Cols(), Y: like.Rows()}, 0, 0, gocv.InterpolationLinear)
	return dst
}

// antiAliasSigma is the prefilter width for resampling n samples to m
func antiAliasSigma(n, m int) float64 {
	factor := float64(n) / float64(m)
	return math.Max(0, (factor-1)/2)
}

func antiAliasKernelSize(sigma float64) int {
	if sigma <= 0 {
		return 1
	}
	return 2*int(4*sigma+0.5) + 1
}

// ComputeSSIM computes the mean structural similarity of two equally shaped
// float64 Mats. Multichannel images are compared per channel and averaged.
func ComputeSSIM(a, b gocv.Mat, opts SSIMOptions) (float64, error) {
	if a.Empty() || b.Empty() {
		return 0, ErrEmptyImage
	}
	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, a.Cols(), a.Rows(), b.Cols(), b.Rows())
	}
	if a.Channels() != b.Channels() {
		return 0, fmt.Errorf("%w: %d vs %d", ErrChannelMismatch, a.Channels(), b.Channels())
	}

	win := opts.WindowSize()
	if a.Rows() < win || a.Cols() < win {
		return 0, fmt.Errorf("%w: %dx%d < %dx%d", ErrWindowTooLarge, a.Cols(), a.Rows(), win, win)
	}

	if identical(a, b) {
		return 1.0, nil
	}

	if a.Channels() == 1 {
		return ssimChannel(a, b, opts, win), nil
	}

	aChannels := gocv.Split(a)
	bChannels := gocv.Split(b)
	defer closeMats(aChannels)
	defer closeMats(bChannels)

	var sum float64
	for c := range aChannels {
		sum += ssimChannel(aChannels[c], bChannels[c], opts, win)
	}
	return sum / float64(len(aChannels)), nil
}

// identical reports whether two Mats hold the same samples
func identical(a, b gocv.Mat) bool {
	return a.Type() == b.Type() && bytes.Equal(a.ToBytes(), b.ToBytes())
}

// ssimChannel computes the SSIM map of one channel and averages it over
// the interior that is at least half a window away from the border
func ssimChannel(x, y gocv.Mat, opts SSIMOptions, win int) float64 {
	var s scratch
	defer s.close()

	ux, uy := s.filter(x, opts, win), s.filter(y, opts, win)
	uxx := s.filter(s.mul(x, x), opts, win)
	uyy := s.filter(s.mul(y, y), opts, win)
	uxy := s.filter(s.mul(x, y), opts, win)

	covNorm := 1.0
	if opts.SampleCovariance {
		np := float64(win * win)
		covNorm = np / (np - 1)
	}

	uxux, uyuy, uxuy := s.mul(ux, ux), s.mul(uy, uy), s.mul(ux, uy)
	vx := s.addWeighted(uxx, covNorm, uxux, -covNorm, 0)
	vy := s.addWeighted(uyy, covNorm, uyuy, -covNorm, 0)
	vxy := s.addWeighted(uxy, covNorm, uxuy, -covNorm, 0)

	c1 := math.Pow(opts.K1*opts.DataRange, 2)
	c2 := math.Pow(opts.K2*opts.DataRange, 2)

	a1 := s.addWeighted(uxuy, 2, uxuy, 0, c1)
	a2 := s.addWeighted(vxy, 2, vxy, 0, c2)
	b1 := s.addWeighted(uxux, 1, uyuy, 1, c1)
	b2 := s.addWeighted(vx, 1, vy, 1, c2)

	ssimMap := s.newMat()
	gocv.Divide(s.mul(a1, a2), s.mul(b1, b2), &ssimMap)

	pad := (win - 1) / 2
	interior := ssimMap.Region(image.Rect(pad, pad, ssimMap.Cols()-pad, ssimMap.Rows()-pad))
	s.track(interior)

	return interior.Mean().Val1
}

// scratch tracks intermediate Mats so one deferred call releases them all
type scratch []gocv.Mat

func (s *scratch) track(m gocv.Mat) gocv.Mat {
	*s = append(*s, m)
	return m
}

func (s *scratch) newMat() gocv.Mat {
	return s.track(gocv.NewMat())
}

func (s *scratch) mul(a, b gocv.Mat) gocv.Mat {
	dst := s.newMat()
	gocv.Multiply(a, b, &dst)
	return dst
}

func (s *scratch) addWeighted(a gocv.Mat, alpha float64, b gocv.Mat, beta, gamma float64) gocv.Mat {
	dst := s.newMat()
	gocv.AddWeighted(a, alpha, b, beta, gamma, &dst)
	return dst
}

func (s *scratch) filter(src gocv.Mat, opts SSIMOptions, win int) gocv.Mat {
	dst := s.newMat()
	ksize := image.Point{X: win, Y: win}
	if opts.Gaussian {
		gocv.GaussianBlur(src, &dst, ksize, opts.Sigma, opts.Sigma, gocv.BorderReflect)
	} else {
		gocv.Blur(src, &dst, ksize)
	}
	return dst
}

func (s *scratch) close() {
	closeMats(*s)
	*s = nil
}

func closeMats(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
