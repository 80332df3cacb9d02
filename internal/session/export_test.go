package session

// Exported for tests.
var ChromeSelector = chromeSelector
