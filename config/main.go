package config

import (
	"fmt"
	"strconv"
	"time"

	"bitbucket.org/vecpay/backend/db"
	"bitbucket.org/vecpay/backend/gateway"
	"bitbucket.org/vecpay/backend/notifications"
	"bitbucket.org/vecpay/backend/payments"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Configuration struct {
	JWTSecret     string `env:"JWT_SECRET,required"`
	Port          int    `env:"PORT,default=3001"`
	Timeout       int    `env:"TIMEOUT,default=5"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	SQL           database
	SMTP          smtp
	AwsS3         awsS3
	Gateway       gatewayConf
	Mail          mail
	RateLimit     rateLimit
	Environment   string `env:"ENVIRONMENT,default=development"`
	AppName       string `env:"APP_NAME,default=vecpay"`
}

type database struct {
	URL            string `env:"DATA_BASE_URL"`
	Name           string `env:"DATA_BASE_NAME"`
	User           string `env:"DATA_BASE_USER"`
	Port           int    `env:"DATA_BASE_PORT,default=3306"`
	Password       string `env:"DATA_BASE_PASSWORD"`
	OpenConnection int    `env:"DATA_BASE_MAX_OPEN_CONNECTION,default=5"`
}

type smtp struct {
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
}

type gatewayConf struct {
	BaseURL    string `env:"PAYMENT_GATEWAY_URL"`
	APIKey     string `env:"PAYMENT_API_KEY"`
	ChargePath string `env:"PAYMENT_GATEWAY_CHARGE_PATH,default=/v1/charges"`
}

type awsS3 struct {
	S3Region      string `env:"S3_REGION,default=us-east-1"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3Url         string `env:"S3_URL"`
	S3PathReceipt string `env:"S3_PATH_RECEIPT,default=receipt"`
}

type mail struct {
	InvoicePaid mailInvoicePaid
	NameFrom    string `env:"MAIL_NAME_FROM"`
	EmailFrom   string `env:"MAIL_EMAIL_FROM"`
	Folder      string `env:"MAIL_FOLDER"`
	Path        string `env:"MAIL_PATH"`
}

type mailInvoicePaid struct {
	Subject  string `env:"MAIL_INVOICE_PAID_SUBJECT,default=Your receipt"`
	Template string `env:"MAIL_INVOICE_PAID_TEMPLATE,default=invoice_paid.html"`
	FileName string `env:"MAIL_INVOICE_PAID_FILENAME,default=receipt.pdf"`
}

type rateLimit struct {
	MaxRequests   int `env:"RATE_LIMIT_MAX_REQUESTS,default=100"`
	WindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS,default=60"`
}

type AppContext struct {
	Config   Configuration
	SQLConn  *sqlx.DB
	DB       db.Storage
	SMTP     *gomail.Dialer
	AwsS3    *session.Session
	Gateway  *gateway.Client
	Payments *payments.PaymentProcessor
	Invoices *payments.InvoiceManager
	Notifier *notifications.Sender
}

func sqlDSN(conf database) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", conf.User, conf.Password, conf.URL, strconv.Itoa(conf.Port), conf.Name)
}

func CreateConnectionSQL(conf database) (*sqlx.DB, error) {
	connection, err := sqlx.Connect("mysql", sqlDSN(conf))
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func CreateConnectionSMTP(conf smtp) *gomail.Dialer {
	return gomail.NewDialer(conf.SMTPHost, conf.SMTPPort, conf.SMTPUser, conf.SMTPPassword)
}

func CreateGatewayClient(conf gatewayConf, timeout int) *gateway.Client {
	return &gateway.Client{
		BaseURL:    conf.BaseURL,
		APIKey:     conf.APIKey,
		ChargePath: conf.ChargePath,
		Timeout:    time.Duration(timeout) * time.Second,
	}
}

func CreateNewSessionS3(conf awsS3) (*session.Session, error) {
	return session.NewSession(&aws.Config{Region: aws.String(conf.S3Region)})
}

var logger *log.Entry

func SetLogger(newLogger *log.Entry) {
	logger = newLogger
}

func GetLogger() *log.Entry {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return logger
}
