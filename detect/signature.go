package detect

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aarsakian/CryptoTriage/driver"
	"github.com/aarsakian/CryptoTriage/model"
	"github.com/aarsakian/CryptoTriage/utils"
	"github.com/pkg/errors"
)

//go:embed signatures.json
var defaultCatalog []byte

var (
	defaultOnce       sync.Once
	defaultSignatures []Signature
	defaultErr        error
)

// DefaultSignatures parses the embedded catalog once and serves it to every
// detector afterwards.
func DefaultSignatures() ([]Signature, error) {
	defaultOnce.Do(func() {
		defaultSignatures, defaultErr = ParseSignatures(defaultCatalog)
	})
	return defaultSignatures, defaultErr
}

// LoadSignatures reads a signature catalog from an external file, the file
// uses the same schema as the embedded one.
func LoadSignatures(path string) ([]Signature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read signature catalog %s", path)
	}
	return ParseSignatures(data)
}

type Matcher struct {
	Type    string
	Pattern []byte
	Offset  *int
}

// Matches checks one rule against a data window. A contains rule with an
// offset compares at that position, without one it searches the window.
func (matcher Matcher) Matches(data []byte) bool {
	switch matcher.Type {
	case "contains":
		if matcher.Offset == nil {
			return bytes.Contains(data, matcher.Pattern)
		}
		end := *matcher.Offset + len(matcher.Pattern)
		if end > len(data) {
			return false
		}
		return bytes.Equal(data[*matcher.Offset:end], matcher.Pattern)
	case "equals":
		start := 0
		if matcher.Offset != nil {
			start = *matcher.Offset
		}
		end := start + len(matcher.Pattern)
		if end > len(data) {
			return false
		}
		return bytes.Equal(data[start:end], matcher.Pattern)
	}
	return false
}

type VersionExtractor struct {
	Type   string
	Offset int
	Length int
}

// Extract renders the version recorded in a header window. An extractor that
// runs past the window or reads a zero value reports no version.
func (extractor VersionExtractor) Extract(data []byte) string {
	switch extractor.Type {
	case "uint16-le":
		length := extractor.Length
		if length == 0 {
			length = 2
		}
		if extractor.Offset+length > len(data) {
			return ""
		}
		value := uint64(0)
		for idx := length - 1; idx >= 0; idx-- {
			value = value<<8 | uint64(data[extractor.Offset+idx])
		}
		if value == 0 {
			return ""
		}
		return strconv.FormatUint(value, 10)
	case "ascii":
		if extractor.Offset+extractor.Length > len(data) {
			return ""
		}
		raw := data[extractor.Offset : extractor.Offset+extractor.Length]
		cleaned := make([]byte, 0, len(raw))
		for _, b := range raw {
			if b < 0x80 {
				cleaned = append(cleaned, b)
			}
		}
		return strings.Trim(string(cleaned), "\x00")
	}
	return ""
}

type Signature struct {
	ID         string
	Name       string
	Status     model.EncryptionStatus
	ReadOffset int64
	MaxRead    int
	Details    string
	Matchers   []Matcher
	Version    *VersionExtractor
}

// Matches requires every matcher of the signature to hold.
func (signature Signature) Matches(data []byte) bool {
	for _, matcher := range signature.Matchers {
		if !matcher.Matches(data) {
			return false
		}
	}
	return true
}

func (signature Signature) ExtractVersion(data []byte) string {
	if signature.Version == nil {
		return ""
	}
	return signature.Version.Extract(data)
}

type rawMatcher struct {
	Type     string `json:"type"`
	Pattern  string `json:"pattern"`
	Encoding string `json:"encoding"`
	Offset   *int   `json:"offset"`
}

type rawVersion struct {
	Type   string `json:"type"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

type rawSignature struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Status     string       `json:"status"`
	ReadOffset int64        `json:"read_offset"`
	MaxRead    int          `json:"max_read"`
	Details    string       `json:"details"`
	Matchers   []rawMatcher `json:"matchers"`
	Version    *rawVersion  `json:"version"`
}

func ParseSignatures(data []byte) ([]Signature, error) {
	var raws []rawSignature
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, errors.Wrap(err, "failed to parse signature catalog")
	}
	signatures := make([]Signature, 0, len(raws))
	for _, raw := range raws {
		signature, err := raw.compile()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid signature %q", raw.ID)
		}
		signatures = append(signatures, signature)
	}
	return signatures, nil
}

func (raw rawSignature) compile() (Signature, error) {
	if raw.ID == "" {
		return Signature{}, errors.New("missing id")
	}
	if raw.Name == "" {
		return Signature{}, errors.New("missing name")
	}
	status, err := statusFromString(raw.Status)
	if err != nil {
		return Signature{}, err
	}
	if len(raw.Matchers) == 0 {
		return Signature{}, errors.New("no matchers defined")
	}
	if raw.ReadOffset < 0 {
		return Signature{}, errors.New("negative read offset")
	}
	maxRead := raw.MaxRead
	if maxRead == 0 {
		maxRead = 4096
	}
	if maxRead < 0 {
		return Signature{}, errors.New("negative max read")
	}
	matchers := make([]Matcher, 0, len(raw.Matchers))
	for _, rawm := range raw.Matchers {
		matcher, err := rawm.compile()
		if err != nil {
			return Signature{}, err
		}
		matchers = append(matchers, matcher)
	}
	version, err := raw.Version.compile()
	if err != nil {
		return Signature{}, err
	}
	return Signature{
		ID:         raw.ID,
		Name:       raw.Name,
		Status:     status,
		ReadOffset: raw.ReadOffset,
		MaxRead:    maxRead,
		Details:    raw.Details,
		Matchers:   matchers,
		Version:    version,
	}, nil
}

func (raw rawMatcher) compile() (Matcher, error) {
	if raw.Type != "equals" && raw.Type != "contains" {
		return Matcher{}, errors.Errorf("unsupported matcher type %q", raw.Type)
	}
	if raw.Offset != nil && *raw.Offset < 0 {
		return Matcher{}, errors.New("negative matcher offset")
	}
	pattern, err := decodePattern(raw.Pattern, raw.Encoding)
	if err != nil {
		return Matcher{}, err
	}
	if len(pattern) == 0 {
		return Matcher{}, errors.New("empty matcher pattern")
	}
	return Matcher{Type: raw.Type, Pattern: pattern, Offset: raw.Offset}, nil
}

func (raw *rawVersion) compile() (*VersionExtractor, error) {
	if raw == nil {
		return nil, nil
	}
	if raw.Type != "uint16-le" && raw.Type != "ascii" {
		return nil, errors.Errorf("unsupported version extractor type %q", raw.Type)
	}
	if raw.Type == "ascii" && raw.Length <= 0 {
		return nil, errors.New("ascii version extractor requires a length")
	}
	if raw.Offset < 0 || raw.Length < 0 || raw.Length > 8 {
		return nil, errors.New("version extractor bounds not valid")
	}
	return &VersionExtractor{Type: raw.Type, Offset: raw.Offset, Length: raw.Length}, nil
}

func decodePattern(pattern, encoding string) ([]byte, error) {
	switch strings.ToLower(encoding) {
	case "", "ascii":
		for idx := 0; idx < len(pattern); idx++ {
			if pattern[idx] >= 0x80 {
				return nil, errors.Errorf("pattern %q is not ascii", pattern)
			}
		}
		return []byte(pattern), nil
	case "utf-8":
		return []byte(pattern), nil
	case "hex":
		decoded, err := hex.DecodeString(strings.ReplaceAll(pattern, " ", ""))
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q is not hex", pattern)
		}
		return decoded, nil
	}
	return nil, errors.Errorf("unsupported pattern encoding %q", encoding)
}

func statusFromString(value string) (model.EncryptionStatus, error) {
	switch strings.ToLower(value) {
	case "encrypted":
		return model.EncryptionEncrypted, nil
	case "not_detected":
		return model.EncryptionNotDetected, nil
	case "partial":
		return model.EncryptionPartiallyEncrypted, nil
	case "", "unknown":
		return model.EncryptionUnknown, nil
	}
	return "", errors.Errorf("unknown encryption status %q", value)
}

// SignatureDetector matches volume headers against a signature catalog. The
// first matching signature in catalog order decides the finding.
type SignatureDetector struct {
	driver     driver.DataSourceDriver
	signatures []Signature
	readPlan   map[int64]int
}

// NewSignatureDetector builds a detector over the given signatures, nil means
// the embedded catalog. When ids are passed only those signatures stay.
func NewSignatureDetector(drv driver.DataSourceDriver, signatures []Signature, ids ...string) (*SignatureDetector, error) {
	if signatures == nil {
		var err error
		signatures, err = DefaultSignatures()
		if err != nil {
			return nil, err
		}
	}
	if len(ids) > 0 {
		wanted := make(map[string]bool, len(ids))
		for _, id := range ids {
			wanted[id] = true
		}
		signatures = utils.Filter(signatures, func(signature Signature) bool {
			return wanted[signature.ID]
		})
	}
	if len(signatures) == 0 {
		return nil, errors.New("signature detector requires at least one signature")
	}
	readPlan := make(map[int64]int)
	for _, signature := range signatures {
		if size, ok := readPlan[signature.ReadOffset]; !ok || signature.MaxRead > size {
			readPlan[signature.ReadOffset] = signature.MaxRead
		}
	}
	return &SignatureDetector{driver: drv, signatures: signatures, readPlan: readPlan}, nil
}

func NewBitLockerDetector(drv driver.DataSourceDriver) (*SignatureDetector, error) {
	return NewSignatureDetector(drv, nil, "bitlocker")
}

func NewVeraCryptDetector(drv driver.DataSourceDriver) (*SignatureDetector, error) {
	return NewSignatureDetector(drv, nil, "veracrypt")
}

func NewLuksDetector(drv driver.DataSourceDriver) (*SignatureDetector, error) {
	return NewSignatureDetector(drv, nil, "luks")
}

func NewFileVault2Detector(drv driver.DataSourceDriver) (*SignatureDetector, error) {
	return NewSignatureDetector(drv, nil, "filevault2")
}

func (detector *SignatureDetector) Name() string {
	return "signature"
}

func (detector *SignatureDetector) Signatures() []Signature {
	return detector.signatures
}

// AnalyzeVolume reads each planned header window once per call and walks the
// catalog in order. A read failure reports EncryptionUnknown, nothing worse,
// triage has to continue on partially readable media.
func (detector *SignatureDetector) AnalyzeVolume(volume *model.Volume) (model.EncryptionFinding, error) {
	cache := make(map[int64][]byte, len(detector.readPlan))
	for _, signature := range detector.signatures {
		data, read := cache[signature.ReadOffset]
		if !read {
			chunk, err := detector.driver.Read(volume.Offset+signature.ReadOffset,
				detector.readPlan[signature.ReadOffset])
			if err != nil {
				return model.EncryptionFinding{Status: model.EncryptionUnknown}, nil
			}
			cache[signature.ReadOffset] = chunk
			data = chunk
		}
		if !signature.Matches(data) {
			continue
		}
		return model.EncryptionFinding{
			Status:    signature.Status,
			Algorithm: signature.Name,
			Version:   signature.ExtractVersion(data),
			Details:   signature.Details,
		}, nil
	}
	return model.EncryptionFinding{Status: model.EncryptionNotDetected}, nil
}
