package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	WebsitesFile      string
	Port              string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Outbound HTTP configuration
	UserAgent        string
	FetchTimeout     int
	DiscoveryTimeout int
	MaxBodySize      int64
	MaxRedirects     int
	ProbeConcurrency int

	// Feed health thresholds
	DegradedThreshold int
	InactiveThreshold int

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
