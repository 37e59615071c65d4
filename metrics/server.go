package metrics

import (
	"expvar"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Expvar metrics (legacy)
	MessagesObserved           = expvar.NewInt("messages_observed_count")
	MessagesDiscarded          = expvar.NewInt("messages_discarded_count")
	SentencesGenerated         = expvar.NewInt("sentences_generated_count")
	GenerationFallbackCount    = expvar.NewInt("generation_fallback_count")
	PregenHitCount             = expvar.NewInt("pregen_hit_count")
	PregenMissCount            = expvar.NewInt("pregen_miss_count")
	ChainUpdateCount           = expvar.NewInt("chain_update_count")
	ChainUpdateFailedCount     = expvar.NewInt("chain_update_failed_count")
	ChainReloadCount           = expvar.NewInt("chain_reload_count")
	EmptyLLMResponseCount      = expvar.NewInt("empty_llm_response_count")
	SuccessfulLLMGenCount      = expvar.NewInt("successful_llm_gen_count")
	FailedLLMGenCount          = expvar.NewInt("failed_llm_gen_count")
	TwitchConnectionCount      = expvar.NewInt("twitch_connection_count")
	TwitchMessageReceivedCount = expvar.NewInt("twitch_message_received_count")
	TwitchMessageSentCount     = expvar.NewInt("twitch_message_sent_count")
	TwitchMessageDroppedCount  = expvar.NewInt("twitch_message_dropped_count")
	DiscordMessageReceived     = expvar.NewInt("discord_message_received")
	DiscordMessageSent         = expvar.NewInt("discord_message_sent")

	// Prometheus metrics with labels
	DiscordCommandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_command_total",
			Help: "Total number of Discord commands invoked by command type",
		},
		[]string{"command"},
	)

	DiscordCommandErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "discord_command_errors",
			Help: "Total number of Discord command errors by command type",
		},
		[]string{"command"},
	)

	DiscordCommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "discord_command_duration_seconds",
			Help:    "Duration of Discord command execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	SentenceGenerationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentence_generation_duration_seconds",
			Help:    "Duration of markov sentence generation in seconds by seeding mode",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	ChainUpdateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chain_update_duration_seconds",
			Help:    "Duration of a full train, merge, and persist cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	ChainStates = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chain_states",
			Help: "Number of states in the live markov chain",
		},
	)

	TrainingBufferSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_buffer_size",
			Help: "Number of messages waiting in the training buffer",
		},
	)

	PregenQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pregen_queue_depth",
			Help: "Number of pregenerated sentences queued per seed word",
		},
		[]string{"seed"},
	)
)

type Server struct {
	*http.Server
}

func SetupServer() *Server {

	// pprof is setup by importing the net/http/pprof package
	server := &http.Server{
		Addr:         ":6060",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// setup expvar cache
	MessagesObserved.Set(0)
	MessagesDiscarded.Set(0)
	SentencesGenerated.Set(0)
	GenerationFallbackCount.Set(0)
	PregenHitCount.Set(0)
	PregenMissCount.Set(0)
	ChainUpdateCount.Set(0)
	ChainUpdateFailedCount.Set(0)
	ChainReloadCount.Set(0)
	EmptyLLMResponseCount.Set(0)
	SuccessfulLLMGenCount.Set(0)
	FailedLLMGenCount.Set(0)
	TwitchConnectionCount.Set(0)
	TwitchMessageReceivedCount.Set(0)
	TwitchMessageSentCount.Set(0)
	TwitchMessageDroppedCount.Set(0)
	DiscordMessageReceived.Set(0)
	DiscordMessageSent.Set(0)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewExpvarCollector(
			map[string]*prometheus.Desc{
				"messages_observed_count":       prometheus.NewDesc("messages_observed_count", "number of chat messages recorded for training", nil, nil),
				"messages_discarded_count":      prometheus.NewDesc("messages_discarded_count", "number of recorded messages discarded after deletion", nil, nil),
				"sentences_generated_count":     prometheus.NewDesc("sentences_generated_count", "number of markov sentences generated", nil, nil),
				"generation_fallback_count":     prometheus.NewDesc("generation_fallback_count", "number of generations that fell back to the canned sentence", nil, nil),
				"pregen_hit_count":              prometheus.NewDesc("pregen_hit_count", "number of sentence requests served from the pregen queue", nil, nil),
				"pregen_miss_count":             prometheus.NewDesc("pregen_miss_count", "number of sentence requests generated on demand", nil, nil),
				"chain_update_count":            prometheus.NewDesc("chain_update_count", "number of successful chain updates", nil, nil),
				"chain_update_failed_count":     prometheus.NewDesc("chain_update_failed_count", "number of failed chain updates", nil, nil),
				"chain_reload_count":            prometheus.NewDesc("chain_reload_count", "number of chain reloads triggered by artifact changes", nil, nil),
				"empty_llm_response_count":      prometheus.NewDesc("empty_llm_response_count", "number of times llm responded with an empty string", nil, nil),
				"successful_llm_gen_count":      prometheus.NewDesc("successful_llm_gen_count", "number of times llm generated a valid response", nil, nil),
				"failed_llm_gen_count":          prometheus.NewDesc("failed_llm_gen_count", "number of times errors occured in llm generation", nil, nil),
				"twitch_connection_count":       prometheus.NewDesc("twitch_connection_count", "number of times twitch connection was established", nil, nil),
				"twitch_message_received_count": prometheus.NewDesc("twitch_message_received_count", "number of times twitch received a message", nil, nil),
				"twitch_message_sent_count":     prometheus.NewDesc("twitch_message_sent_count", "number of times twitch sent a message", nil, nil),
				"twitch_message_dropped_count":  prometheus.NewDesc("twitch_message_dropped_count", "number of twitch messages dropped by a full broker queue", nil, nil),
				"discord_message_received":      prometheus.NewDesc("discord_message_received", "number of times discord received a message", nil, nil),
				"discord_message_sent":          prometheus.NewDesc("discord_message_sent", "number of times discord sent a message", nil, nil),
			},
		),
		// Register command and chain metrics with labels
		DiscordCommandTotal,
		DiscordCommandErrors,
		DiscordCommandDuration,
		SentenceGenerationDuration,
		ChainUpdateDuration,
		ChainStates,
		TrainingBufferSize,
		PregenQueueDepth,
	)

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	http.HandleFunc("/healthz", healthzHandler)
	return &Server{server}
}

// healthzHandler returns a simple health check response
func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) Run() {
	_ = s.ListenAndServe()
}
