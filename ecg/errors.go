package ecg

import "errors"

var (
	// ErrCalibration: a lead has a zero, NaN or missing ADC gain (or baseline).
	ErrCalibration = errors.New("calibration error")
	// ErrInsufficientLength is recoverable: the caller should skip the record.
	ErrInsufficientLength = errors.New("insufficient signal length")
	ErrInsufficientPeaks  = errors.New("insufficient r-peaks")
	ErrInvalidPeakSet     = errors.New("invalid r-peak set")
	ErrUnsupportedMethod  = errors.New("unsupported method")
	// ErrNoPeaksDetected is raised upstream by the R-peak locator.
	ErrNoPeaksDetected = errors.New("no r-peaks detected")
	ErrUnknownTranche  = errors.New("unknown tranche")
	// ErrMalformedWaveform: wrong lead count or order, ragged or empty leads.
	ErrMalformedWaveform = errors.New("malformed waveform")
)
