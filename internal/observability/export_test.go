package observability

func resetForTest() {
	globalLogger.Store(nil)
}
