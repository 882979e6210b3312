package config

import (
	"flag"
	"os"
)

const (
	defaultDBDNS      = ""
	defaultChunkSize  = 200
	defaultKafkaTopic = "fieldops.events"
)

type Flags struct {
	address  string
	logLevel string

	dbDNS          string
	routingAddress string
	importAddress  string
	chunkSize      int
	jwtSecret      string
	redisAddress   string
	kafkaBrokers   string
	kafkaTopic     string
	snsTopicARN    string
	awsRegion      string
}

func (flags *Flags) Init() {
	flags.register(flag.CommandLine)
	flag.Parse()
}

func (flags *Flags) register(set *flag.FlagSet) {
	set.StringVar(&flags.address, "a", ":8080", "Address and port to run server")
	set.StringVar(&flags.logLevel, "l", "info", "log level")

	set.StringVar(&flags.dbDNS, "d", defaultDBDNS, "db dns")
	set.StringVar(&flags.routingAddress, "r", "", "routing provider address")
	set.StringVar(&flags.importAddress, "i", "", "bulk import endpoint address; empty writes to the database")
	set.IntVar(&flags.chunkSize, "c", defaultChunkSize, "orders per bulk import call")
	set.StringVar(&flags.jwtSecret, "k", "", "shared secret of the auth backend")
	set.StringVar(&flags.redisAddress, "redis", "", "redis address for the in-flight guard")
	set.StringVar(&flags.kafkaBrokers, "kafka", "", "comma separated kafka brokers")
	set.StringVar(&flags.kafkaTopic, "topic", defaultKafkaTopic, "kafka topic for events")
	set.StringVar(&flags.snsTopicARN, "sns", "", "sns topic arn for import notifications")
	set.StringVar(&flags.awsRegion, "region", os.Getenv("AWS_DEFAULT_REGION"), "aws region")
}

func (flags *Flags) Config() Config {
	return Config{
		Address:         flags.address,
		LogLevel:        flags.logLevel,
		DatabaseDNS:     flags.dbDNS,
		RoutingAddress:  flags.routingAddress,
		ImportAddress:   flags.importAddress,
		ImportChunkSize: flags.chunkSize,
		JWTSecret:       flags.jwtSecret,
		RedisAddress:    flags.redisAddress,
		KafkaBrokers:    flags.kafkaBrokers,
		KafkaTopic:      flags.kafkaTopic,
		SNSTopicARN:     flags.snsTopicARN,
		AWSRegion:       flags.awsRegion,
	}
}
