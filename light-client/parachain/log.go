package parachain

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "parachain")
