package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rifqiokta/socialhub/config"
	"github.com/rifqiokta/socialhub/pkg/cache"
	"github.com/rifqiokta/socialhub/pkg/eventbus"
	"github.com/rifqiokta/socialhub/pkg/helpers"
	"github.com/rifqiokta/socialhub/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router modules auto-wire their dependencies from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager

	mailgunClient *mailer.Mailgun
	bus           *eventbus.Bus
	emailQueue    *eventbus.QueuePublisher
	esClient      *elasticsearch.Client
	coordinator   *cache.Coordinator
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetGCS(s *storage.Client)     { gcsClient = s }
func GetGCS() *storage.Client      { return gcsClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }

func SetMailgun(m *mailer.Mailgun)             { mailgunClient = m }
func GetMailgun() *mailer.Mailgun              { return mailgunClient }
func SetBus(b *eventbus.Bus)                   { bus = b }
func GetBus() *eventbus.Bus                    { return bus }
func SetEmailQueue(p *eventbus.QueuePublisher) { emailQueue = p }
func GetEmailQueue() *eventbus.QueuePublisher  { return emailQueue }
func SetES(c *elasticsearch.Client)            { esClient = c }
func GetES() *elasticsearch.Client             { return esClient }
func SetCacheCoordinator(c *cache.Coordinator) { coordinator = c }
func GetCacheCoordinator() *cache.Coordinator  { return coordinator }
