// Package events carries generation outcomes from the scheduler to whoever
// wants to observe them.
//
// The scheduler emits an OutcomeEvent every time a task resolves, whatever
// the content source. Handlers such as the quality recorder subscribe through
// an EventEmitter without the scheduler knowing about them.
package events
