package config

import "os"

type Cloudinary struct {
	CloudName    string
	UploadPreset string
	Folder       string
}

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	FacebookAppID     string
	FacebookAppSecret string
	FacebookRedirect  string
	OpenAIBaseURL     string
	OpenAIApiKey      string
	OpenAIModel       string
	PostgresURI       string
	RedisURI          string
	FrontendURL       string
	Cloudinary        Cloudinary
	R2                R2
	SecretKey         string
	CookieName        string
	AccessKey         string
}

func LoadConfig() *Config {
	return &Config{
		FacebookAppID:     getEnv("FACEBOOK_APP_ID", ""),
		FacebookAppSecret: getEnv("FACEBOOK_APP_SECRET", ""),
		FacebookRedirect:  getEnv("FACEBOOK_REDIRECT_URI", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
		OpenAIApiKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		PostgresURI:       getEnv("POSTGRES_URI", ""),
		RedisURI:          getEnv("REDIS_URI", ""),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		Cloudinary: Cloudinary{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", ""),
			Folder:       getEnv("CLOUDINARY_FOLDER", ""),
		},
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", "postpilot_session"),
		AccessKey:  getEnv("ACCESS_KEY", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
