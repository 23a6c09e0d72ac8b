//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package str

type CurrentConfiguration struct {
	BlackAndWhite bool               `yaml:"blackandwhite"`
	EchoLog       int                `yaml:"echolog"` // 0: "none", 1: "terse", 2: "prolix", 3: "prolix+remoteip"
	Gzip          bool               `yaml:"gzip"`
	HostIP        string             `yaml:"hostip"`
	HostPort      int                `yaml:"hostport"`
	LogFile       string             `yaml:"logfile"` // zap JSON sink; empty disables it
	LogLevel      int                `yaml:"loglevel"`
	Model         Hyperparameters    `yaml:"model"`
	ProfileCPU    bool               `yaml:"profilecpu"`
	ProfileMEM    bool               `yaml:"profilemem"`
	Store         StoreConfiguration `yaml:"store"`
	Transformer   TransformerService `yaml:"transformer"`
	UseOverrides  bool               `yaml:"useoverrides"`
	WorkerCount   int                `yaml:"workers"`
}

// Hyperparameters - everything needed to rebuild an identical architecture; saved next to the weights
type Hyperparameters struct {
	BeamWidth           int     `yaml:"beamwidth" json:"beamwidth"` // 0: greedy lemma decoding
	CharHidden          int     `yaml:"charhidden" json:"charhidden"`
	DecoderDropout      float64 `yaml:"decoderdropout" json:"decoderdropout"`
	EmbeddingSize       int     `yaml:"embeddingsize" json:"embeddingsize"`
	EncoderDropout      float64 `yaml:"encoderdropout" json:"encoderdropout"`
	LemmaDecoder        string  `yaml:"lemmadecoder" json:"lemmadecoder"` // "char" or "transformation"
	MaxTagsLen          int     `yaml:"maxtagslen" json:"maxtagslen"`
	OutputEmbeddingSize int     `yaml:"outputembeddingsize" json:"outputembeddingsize"`
	Seed                uint64  `yaml:"seed" json:"seed"`
	TagDecoder          string  `yaml:"tagdecoder" json:"tagdecoder"` // "rnn" or "ff"
	TransformerDim      int     `yaml:"transformerdim" json:"transformerdim"`
	UseTransformer      bool    `yaml:"usetransformer" json:"usetransformer"`
	WordHidden          int     `yaml:"wordhidden" json:"wordhidden"`
}

type StoreConfiguration struct {
	Provider   string        `yaml:"provider"` // "sqlite" or "pgsql"
	SQLitePath string        `yaml:"sqlitepath"`
	PGLogin    PostgresLogin `yaml:"pglogin"`
}

// TransformerService - where the subword tokenizer and the pretrained embeddings come from
type TransformerService struct {
	Tokenizer  string   `yaml:"tokenizer"`  // tokenizer.json or vocab.txt
	Embeddings string   `yaml:"embeddings"` // word-vector text file keyed by subword
	Command    []string `yaml:"command"`    // external embedder; preferred over Embeddings when set
}
