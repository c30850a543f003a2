package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API layer to manage background task
// processing. The scheduler owns a worker pool and a bounded task queue;
// enqueueing never blocks.
// Example usage:
//
//	scheduler := NewScheduler(websiteRepo, feedRepo, articleRepo, discoverer, fetcher, extractor, httpClient)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewFetchFeedTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
