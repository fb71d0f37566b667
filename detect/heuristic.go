package detect

import (
	"fmt"
	"math"

	"github.com/aarsakian/CryptoTriage/driver"
	"github.com/aarsakian/CryptoTriage/model"
)

// HeuristicConfig tunes the entropy based detector. Thresholds are fractions
// for byte statistics and bits per byte for entropies.
type HeuristicConfig struct {
	SampleSize              int
	MinSampleSize           int
	HighEntropyThreshold    float64
	LowEntropyThreshold     float64
	MostlySameByteThreshold float64
	MostlyZeroThreshold     float64
	LowVariabilityEntropy   float64
}

func DefaultHeuristicConfig() HeuristicConfig {
	return HeuristicConfig{
		SampleSize:              64 * 1024,
		MinSampleSize:           4 * 1024,
		HighEntropyThreshold:    7.85,
		LowEntropyThreshold:     1.0,
		MostlySameByteThreshold: 0.90,
		MostlyZeroThreshold:     0.98,
		LowVariabilityEntropy:   2.0,
	}
}

// HeuristicDetector estimates encryption from byte statistics when no
// signature matched. It reports EncryptionEncrypted only on a strong signal,
// very high entropy with no recognized filesystem on the volume.
type HeuristicDetector struct {
	driver driver.DataSourceDriver
	config HeuristicConfig
}

func NewHeuristicDetector(drv driver.DataSourceDriver) *HeuristicDetector {
	return &HeuristicDetector{driver: drv, config: DefaultHeuristicConfig()}
}

func NewHeuristicDetectorWithConfig(drv driver.DataSourceDriver, config HeuristicConfig) *HeuristicDetector {
	return &HeuristicDetector{driver: drv, config: config}
}

func (detector *HeuristicDetector) Name() string {
	return "heuristic"
}

func (detector *HeuristicDetector) AnalyzeVolume(volume *model.Volume) (model.EncryptionFinding, error) {
	if volume.Filesystem != "" && volume.Filesystem != model.FSUnknown {
		return model.EncryptionFinding{
			Status:  model.EncryptionNotDetected,
			Details: fmt.Sprintf("Heuristic: filesystem %s detected", volume.Filesystem),
		}, nil
	}

	sample, err := detector.readSample(volume)
	if err != nil {
		return model.EncryptionFinding{
			Status:  model.EncryptionUnknown,
			Details: "Heuristic: read failure",
		}, nil
	}
	if len(sample) < detector.config.MinSampleSize {
		return model.EncryptionFinding{
			Status:  model.EncryptionUnknown,
			Details: "Heuristic: sample too small",
		}, nil
	}

	entropy := ShannonEntropy(sample)
	zeroFraction, maxByteFraction := byteStats(sample)

	if zeroFraction >= detector.config.MostlyZeroThreshold && entropy <= detector.config.LowEntropyThreshold {
		return model.EncryptionFinding{
			Status: model.EncryptionUnknown,
			Details: fmt.Sprintf("Heuristic: sample looks like empty/zeroed data (entropy=%.2f, zero_fraction=%.2f)",
				entropy, zeroFraction),
		}, nil
	}

	if maxByteFraction >= detector.config.MostlySameByteThreshold && entropy <= detector.config.LowVariabilityEntropy {
		return model.EncryptionFinding{
			Status: model.EncryptionNotDetected,
			Details: fmt.Sprintf("Heuristic: data shows low variability (entropy=%.2f, max_byte_fraction=%.2f)",
				entropy, maxByteFraction),
		}, nil
	}

	if entropy >= detector.config.HighEntropyThreshold {
		return model.EncryptionFinding{
			Status:    model.EncryptionEncrypted,
			Algorithm: "Heuristic",
			Details: fmt.Sprintf("Heuristic: very high entropy without a recognized filesystem (entropy=%.2f, max_byte_fraction=%.2f)",
				entropy, maxByteFraction),
		}, nil
	}

	return model.EncryptionFinding{
		Status:  model.EncryptionUnknown,
		Details: fmt.Sprintf("Heuristic: inconclusive (entropy=%.2f)", entropy),
	}, nil
}

// readSample collects up to three windows, the head, the middle and the tail
// of the volume. A volume of unknown size contributes a single head window.
func (detector *HeuristicDetector) readSample(volume *model.Volume) ([]byte, error) {
	size := volume.Size
	if size < 0 {
		size = 0
	}
	sampleSize := detector.config.SampleSize
	if size > 0 && int64(sampleSize) > size {
		sampleSize = int(size)
	}

	offsets := []int64{0}
	if size > 0 {
		middle := size/2 - int64(sampleSize)/2
		if middle < 0 {
			middle = 0
		}
		tail := size - int64(sampleSize)
		if tail < 0 {
			tail = 0
		}
		offsets = append(offsets, middle, tail)
	}

	var sample []byte
	for _, offset := range offsets {
		toRead := sampleSize
		if size > 0 {
			if remaining := size - offset; remaining < int64(toRead) {
				toRead = int(remaining)
			}
			if toRead <= 0 {
				continue
			}
		}
		chunk, err := detector.driver.Read(volume.Offset+offset, toRead)
		if err != nil {
			return nil, err
		}
		sample = append(sample, chunk...)
	}
	return sample, nil
}

// ShannonEntropy computes bits per byte over a 256 bucket histogram.
func ShannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0.0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	length := float64(len(data))
	entropy := 0.0
	for _, count := range counts {
		if count == 0 {
			continue
		}
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func byteStats(data []byte) (zeroFraction, maxByteFraction float64) {
	if len(data) == 0 {
		return 0.0, 0.0
	}
	var counts [256]int
	for _, b := range data {
		counts[b]++
	}
	maxCount := 0
	for _, count := range counts {
		if count > maxCount {
			maxCount = count
		}
	}
	length := float64(len(data))
	return float64(counts[0]) / length, float64(maxCount) / length
}
