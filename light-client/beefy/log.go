package beefy

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "beefy")
