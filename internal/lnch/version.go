//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package lnch

import (
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"io"
	"runtime"
)

//
// VERSION INFO BUILD TIME INJECTION
//

// these next variables should be injected at build time:
// 'go build -ldflags "-X github.com/e-gun/HipparchiaMorphTagger/internal/lnch.GitCommit=$GIT_COMMIT"', etc

var GitCommit string
var VersSuppl string
var BuildDate string

// VersionLine - e.g. "[HMT] Hipparchia Morphological Tagger (v0.3.1) [git: 64974732] [gl=3; el=0]"
func VersionLine(cc *str.CurrentConfiguration) string {
	const (
		SN = "[C1%sC0] "
		GC = " [C4git: C4%sC0]"
		LL = " [C6gl=%d; el=%dC0]"
		ME = "C5%sC0 (C2v%sC0)"
	)
	sn := fmt.Sprintf(SN, vv.SHORTNAME)
	gc := ""
	if GitCommit != "" {
		gc = fmt.Sprintf(GC, GitCommit)
	}
	ll := fmt.Sprintf(LL, cc.LogLevel, cc.EchoLog)
	versioninfo := fmt.Sprintf(ME, vv.MYNAME, vv.VERSION+VersSuppl)
	return Msg.ColStyle(sn + versioninfo + gc + ll)
}

func PrintVersion(w io.Writer, cc *str.CurrentConfiguration) {
	fmt.Fprintln(w, VersionLine(cc))
}

// PrintBuildInfo - build, runtime and (when known) model facts; params < 0 means no model is loaded
func PrintBuildInfo(w io.Writer, cc *str.CurrentConfiguration, params int) {
	// example:
	// 	Built:	2023-11-14@19:02:51		Golang:	go1.21.4
	//	System:	darwin-arm64			WKvCPU:	20/20
	//	Model:	char/rnn				Params:	1,204,388
	const (
		BD = "\tS1Built:S0\tC3%sC0\t"
		GV = "\tS1Golang:S0\tC3%sC0\n"
		SY = "\tS1System:S0\tC3%s-%sC0\t"
		WC = "\t\tS1WKvCPU:S0\tC3%dC0/C3%dC0\n"
		MD = "\tS1Model:S0\tC3%s/%sC0\t\t\t"
		PC = "S1Params:S0\tC3%sC0"
	)

	bi := ""
	if BuildDate != "" {
		bi = Msg.ColStyle(fmt.Sprintf(BD, BuildDate))
	}
	bi += Msg.ColStyle(fmt.Sprintf(GV, runtime.Version()))
	bi += Msg.ColStyle(fmt.Sprintf(SY, runtime.GOOS, runtime.GOARCH))
	bi += Msg.ColStyle(fmt.Sprintf(WC, cc.WorkerCount, runtime.NumCPU()))
	if params >= 0 {
		pr := message.NewPrinter(language.English)
		bi += Msg.ColStyle(fmt.Sprintf(MD, cc.Model.LemmaDecoder, cc.Model.TagDecoder))
		bi += Msg.ColStyle(fmt.Sprintf(PC, pr.Sprintf("%d", params)))
	}
	fmt.Fprintln(w, bi)
}

// Copyright - the GPL notice shown by the repl and the version command
func Copyright() string {
	return fmt.Sprintf(vv.TERMINALTEXT, vv.PROJYEAR, vv.PROJAUTH, vv.PROJMAIL)
}
