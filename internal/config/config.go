package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR"`
	AMQPURL     string `env:"AMQP_URL"`

	Paystack   Paystack   `envPrefix:"PAYSTACK_"`
	Token      Token      `envPrefix:"TOKEN_"`
	Split      Split      `envPrefix:"SPLIT_"`
	SMTP       SMTP       `envPrefix:"SMTP_"`
	Cloudinary Cloudinary `envPrefix:"CLOUDINARY_"`
}

type Paystack struct {
	BaseApiURL string `env:"BASE_API_URL" envDefault:"https://api.paystack.co"`
	SecretKey  string `env:"SECRET_KEY"`
}

type Token struct {
	PrivateKeyPath string `env:"PRIVATE_KEY_PATH" envDefault:"private_key.pem"`
	PublicKeyPath  string `env:"PUBLIC_KEY_PATH" envDefault:"public_key.pem"`
	AccessTTLMin   int    `env:"ACCESS_TTL_MIN" envDefault:"60"`
	RefreshTTLMin  int    `env:"REFRESH_TTL_MIN" envDefault:"1440"`
	ResetTTLMin    int    `env:"RESET_TTL_MIN" envDefault:"10"`
}

// Split carries the platform/vendor revenue percentages registered with the
// gateway and used by the payout calculator.
type Split struct {
	PlatformPercent int `env:"PLATFORM_PERCENT" envDefault:"10"`
	VendorPercent   int `env:"VENDOR_PERCENT" envDefault:"90"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

type Cloudinary struct {
	CloudName string `env:"CLOUD_NAME"`
	APIKey    string `env:"API_KEY"`
	APISecret string `env:"API_SECRET"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
