package grandpa

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "grandpa")
