//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package lnch

import (
	"github.com/e-gun/HipparchiaMorphTagger/internal/mm"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
)

// NewMessageMakerConfigured - a fresh MessageMaker that follows the configuration
func NewMessageMakerConfigured(c *str.CurrentConfiguration) (*mm.MessageMaker, error) {
	m := mm.New(c.LogLevel, c.BlackAndWhite)
	if err := m.AttachFile(c.LogFile); err != nil {
		return m, err
	}
	return m, nil
}
