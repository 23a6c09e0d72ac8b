//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package lnch

import (
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mdl"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mm"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"runtime"
)

var (
	Config = BuildDefaultConfig()
	Msg    = mm.New(vv.DEFAULTGOLOGLEVEL, vv.BLACKANDWHITE)
)

// Flags - the command-line values that can override the config file
type Flags struct {
	ConfigFile string
	LogLevel   int
	EchoLog    int
	BW         bool
	LogFile    string
	Workers    int
	ProfileCPU bool
	ProfileMEM bool
}

// BuildDefaultConfig - return a CurrentConfiguration filled out with various default values
func BuildDefaultConfig() *str.CurrentConfiguration {
	var c str.CurrentConfiguration
	c.BlackAndWhite = vv.BLACKANDWHITE
	c.EchoLog = vv.DEFAULTECHOLOGLEVEL
	c.Gzip = vv.USEGZIP
	c.HostIP = vv.SERVEDFROMHOST
	c.HostPort = vv.SERVEDFROMPORT
	c.LogLevel = vv.DEFAULTGOLOGLEVEL
	c.Model = mdl.Defaults()
	c.ProfileCPU = false
	c.ProfileMEM = false
	c.UseOverrides = true
	c.WorkerCount = runtime.NumCPU()

	c.Store = str.StoreConfiguration{
		Provider:   vv.DEFAULTSTORE,
		SQLitePath: vv.DEFAULTSQLITEFILE,
		PGLogin: str.PostgresLogin{
			Host:   vv.DEFAULTPSQLHOST,
			Port:   vv.DEFAULTPSQLPORT,
			User:   vv.DEFAULTPSQLUSER,
			Pass:   "",
			DBName: vv.DEFAULTPSQLDB,
		},
	}
	return &c
}

// LookForConfigFile - the explicit file if one was named, else the first of ./hmt-conf.yaml and
// $HOME/.config/hmt-conf.yaml that exists; "" when there is none
func LookForConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	candidates := []string{filepath.Join(vv.CONFIGLOCATION, vv.CONFIGBASIC)}
	if h, e := os.UserHomeDir(); e == nil {
		candidates = append(candidates, fmt.Sprintf(vv.CONFIGALTAPTH, h)+vv.CONFIGBASIC)
	}
	for _, c := range candidates {
		if _, e := os.Stat(c); e == nil {
			return c
		}
	}
	return ""
}

// ReadConfigFile - lay a YAML (or JSON) file over whatever c already holds; absent keys keep their values
func ReadConfigFile(fn string, c *str.CurrentConfiguration) error {
	const (
		FAIL1 = "could not parse the information in '%s': %w"
	)
	b, err := os.ReadFile(fn)
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf(FAIL1, fn, err)
	}
	return nil
}

// ConfigAtLaunch - defaults, then the config file, then the flags that were actually set
func ConfigAtLaunch(f Flags, changed func(string) bool) (*str.CurrentConfiguration, error) {
	const (
		MSG1  = "'%s' loaded"
		MSG2  = "no configuration file found; using built-in defaults"
		FAIL5 = "Refusing to set a workercount greater than NumCPU: %d > %d ---> setting workercount value to NumCPU: %d"
	)

	c := BuildDefaultConfig()

	fn := LookForConfigFile(f.ConfigFile)
	if fn != "" {
		if err := ReadConfigFile(fn, c); err != nil {
			return nil, err
		}
		Msg.TMI(fmt.Sprintf(MSG1, fn))
	} else {
		Msg.TMI(MSG2)
	}

	if changed == nil {
		changed = func(string) bool { return false }
	}
	if changed("gl") {
		c.LogLevel = f.LogLevel
	}
	if changed("el") {
		c.EchoLog = f.EchoLog
	}
	if changed("bw") {
		c.BlackAndWhite = f.BW
	}
	if changed("logfile") {
		c.LogFile = f.LogFile
	}
	if changed("workers") {
		c.WorkerCount = f.Workers
	}
	if changed("profilecpu") {
		c.ProfileCPU = f.ProfileCPU
	}
	if changed("profilemem") {
		c.ProfileMEM = f.ProfileMEM
	}

	if c.WorkerCount > runtime.NumCPU() {
		Msg.CRIT(fmt.Sprintf(FAIL5, c.WorkerCount, runtime.NumCPU(), runtime.NumCPU()))
		c.WorkerCount = runtime.NumCPU()
	}
	if c.WorkerCount < 1 {
		c.WorkerCount = 1
	}

	Config = c
	return c, nil
}

// WriteDefaultConfig - put a starter config file in $HOME/.config unless one is already there
func WriteDefaultConfig() (string, error) {
	const (
		MSG1 = "wrote a starter configuration to '%s'"
	)
	h, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("cannot find UserHomeDir")
	}
	dir := fmt.Sprintf(vv.CONFIGALTAPTH, h)
	fn := dir + vv.CONFIGBASIC
	if _, e := os.Stat(fn); e == nil {
		return fn, nil
	}
	if err = os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	b, err := yaml.Marshal(BuildDefaultConfig())
	if err != nil {
		return "", err
	}
	if err = os.WriteFile(fn, b, vv.WRITEPERMS); err != nil {
		return "", err
	}
	Msg.NOTE(fmt.Sprintf(MSG1, fn))
	return fn, nil
}
