// Package config centralizes environment loading, engine scoring weights, and
// device profile tables. Every knob the server accepts is a named field here;
// there is no generic dynamic-config map.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings loaded once at startup.
type Config struct {
	ListeningPort int
	AdminPassword string
	KVPath        string
	FontDirs      []string
	RefreshSecs   int
}

// LoadConfig reads environment variables (optionally from a .env file) and
// applies defaults.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	port := 8080
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	kvPath := os.Getenv("KV_PATH")
	if kvPath == "" {
		kvPath = "commuterdash.db"
	}

	return &Config{
		ListeningPort: port,
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		KVPath:        kvPath,
		FontDirs:      []string{"./fonts/", ExecutableDirFonts(), "/var/task/fonts/"},
		RefreshSecs:   DefaultRefreshSeconds,
	}, nil
}

// InitFlags lets an operator override the listening port on the command
// line.
func InitFlags() int {
	listeningPort := flag.Int("port", 0, "listening port (overrides $PORT)")
	flag.Parse()
	return *listeningPort
}

// ExecutableDirFonts returns the fonts/ directory next to the running binary.
func ExecutableDirFonts() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	dir := exe
	for i := len(dir) - 1; i >= 0; i-- {
		if dir[i] == '/' {
			dir = dir[:i]
			break
		}
	}
	return dir + "/fonts/"
}

// DefaultRefreshSeconds is the device-side polling cadence used as a default
// when no override is configured.
const DefaultRefreshSeconds = 60

// Engine scoring weights.
const (
	WeightTotalMinutes      = 0.40
	WeightTransferPenalty   = 0.25
	WeightWalkMinutes       = 0.20
	WeightReliability       = 0.15
	TransferPenaltyPerLeg   = 5.0
	SuspendedOrBusReplPerLeg = 10.0
)

// Journey geometry defaults.
const (
	DefaultMaxWalkMetres       = 800.0
	DefaultMaxInterchangeMetres = 600.0
	DefaultMaxTransitLegs      = 2
	WalkPaceMetresPerMinute    = 75.0 // 4.5 km/h
	CafeInterchangeRadiusMetres = 250.0
)

// Coffee decision defaults.
const (
	DefaultCoffeePrepMinutes  = 3
	CoffeeSlackBufferMinutes  = 2
	CoffeeOriginWalkBudget    = 800.0
	CoffeeOriginDetourMinutes = 4.0
	CoffeeDestinationRadius   = 400.0
	CoffeeExtraTimeSlackMins  = 5
)

// Request timing budget.
const (
	RequestBudget   = 5 * time.Second
	TransitDeadline = 2 * time.Second
	WeatherDeadline = 2 * time.Second
	KVDeadline      = 1 * time.Second
	FeedCacheTTL    = 30 * time.Second
	AlertCacheTTL   = 300 * time.Second
	WeatherCacheTTL = 300 * time.Second
	StaticGTFSTTL   = 86400 * time.Second
	PairingTTL      = 600 * time.Second
	InFlightDeadline = 5 * time.Second
)

// DeviceKind identifies a physical or virtual rendering target.
type DeviceKind string

const (
	DeviceTRMNLOG      DeviceKind = "trmnl-og"
	DeviceTRMNLMini     DeviceKind = "trmnl-mini"
	DeviceKindlePW5     DeviceKind = "kindle-pw5"
	DeviceKindlePW3     DeviceKind = "kindle-pw3"
	DeviceInkplate6     DeviceKind = "inkplate-6"
	DeviceWebPreview    DeviceKind = "web-preview"
)

// Format identifies the output encoding for a device profile.
type Format string

const (
	FormatBMP Format = "bmp"
	FormatPNG Format = "png"
)

// Orientation of the device's physical screen.
type Orientation string

const (
	OrientationLandscape Orientation = "landscape"
	OrientationPortrait  Orientation = "portrait"
)

// DeviceProfile is the canonical description of one output target.
type DeviceProfile struct {
	Width       int
	Height      int
	BitDepth    int
	Orientation Orientation
	Format      Format
}

// DeviceProfiles is the read-only, process-wide table of known device kinds.
var DeviceProfiles = map[DeviceKind]DeviceProfile{
	DeviceTRMNLOG:    {Width: 800, Height: 480, BitDepth: 1, Orientation: OrientationLandscape, Format: FormatBMP},
	DeviceTRMNLMini:  {Width: 600, Height: 448, BitDepth: 1, Orientation: OrientationLandscape, Format: FormatBMP},
	DeviceKindlePW5:  {Width: 1236, Height: 1648, BitDepth: 8, Orientation: OrientationPortrait, Format: FormatPNG},
	DeviceKindlePW3:  {Width: 1072, Height: 1448, BitDepth: 8, Orientation: OrientationPortrait, Format: FormatPNG},
	DeviceInkplate6:  {Width: 800, Height: 600, BitDepth: 1, Orientation: OrientationLandscape, Format: FormatBMP},
	DeviceWebPreview: {Width: 800, Height: 480, BitDepth: 8, Orientation: OrientationLandscape, Format: FormatPNG},
}

// LookupDevice resolves a device kind, falling back to web-preview for an
// unknown value so a malformed query string degrades instead of failing.
func LookupDevice(kind string) (DeviceKind, DeviceProfile) {
	dk := DeviceKind(kind)
	if p, ok := DeviceProfiles[dk]; ok {
		return dk, p
	}
	return DeviceWebPreview, DeviceProfiles[DeviceWebPreview]
}
