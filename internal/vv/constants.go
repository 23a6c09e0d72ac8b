//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package vv

import "time"

const (
	MYNAME    = "Hipparchia Morphological Tagger"
	SHORTNAME = "HMT"
	VERSION   = "0.3.1"

	MSGMAND = -1
	MSGCRIT = 0
	MSGWARN = 1
	MSGNOTE = 2
	MSGFYI  = 3
	MSGPEEK = 4
	MSGTMI  = 5

	TIMETRACKERMSGTHRESH = MSGFYI

	// reserved vocabulary symbols: ids 0, 1, 2 in every vocabulary
	PADSYMBOL   = "<p>"
	ENDSYMBOL   = "<e>"
	STARTSYMBOL = "<s>"

	BLACKANDWHITE       = false
	CONFIGLOCATION      = "."
	CONFIGALTAPTH       = "%s/.config/" // %s = os.UserHomeDir()
	CONFIGBASIC         = "hmt-conf.yaml"
	DEFAULTECHOLOGLEVEL = 0
	DEFAULTGOLOGLEVEL   = 0
	DEFAULTPSQLHOST     = "127.0.0.1"
	DEFAULTPSQLUSER     = "hippa_wr"
	DEFAULTPSQLPORT     = 5432
	DEFAULTPSQLDB       = "hipparchiaDB"
	DEFAULTSQLITEFILE   = "hmt-model.db"
	DEFAULTSTORE        = "sqlite"
	JSONINDENT          = "  "
	MAXECHOREQPERSECOND = 60
	MAXINPUTLEN         = 512 // tokens accepted per sentence by the web routes
	UNACCEPTABLEINPUT   = "<>{}`\"\\"
	SERVEDFROMHOST      = "127.0.0.1"
	SERVEDFROMPORT      = 8010
	TIMEOUTRD           = 15 * time.Second
	TIMEOUTWR           = 120 * time.Second
	USEGZIP             = false
	WRITEPERMS          = 0644

	// model defaults
	DEFAULTBEAMWIDTH      = 0
	DEFAULTCHARHIDDEN     = 128
	DEFAULTDECDROPOUT     = 0.2
	DEFAULTEMBSIZE        = 64
	DEFAULTENCDROPOUT     = 0.2
	DEFAULTLEMMADECODER   = LEMMACHAR
	DEFAULTMAXTAGSLEN     = 10
	DEFAULTOUTEMBSIZE     = 64
	DEFAULTSEED           = 1
	DEFAULTTAGDECODER     = TAGSRNN
	DEFAULTTRANSFORMERDIM = 768

	LEMMACHAR      = "char"
	LEMMATRANSFORM = "transformation"
	TAGSRNN        = "rnn"
	TAGSFF         = "ff"

	// checkpoint component names
	CKHYPER      = "hyperparameters"
	CKVOCAB      = "vocabularies"
	CKENCODER    = "encoder"
	CKLEMMA      = "decoder_lemma"
	CKMORPH      = "decoder_morph"
	CKSURF2LEMMA = "surface2lemma"
)
