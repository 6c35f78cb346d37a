// Package teximal trains and serves small text classifiers: a binary
// sentiment model for reviews and a multi-class model that assigns GitHub
// issues to an area label.
//
// Quick start:
//
//	s, err := teximal.LoadSentiment("models/sentiment_model.gob")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	p := s.Predict("This was a very bad steak")
//	fmt.Println(p.Positive, p.Probability)
//
// Models are immutable after training or loading and safe for concurrent
// use.
package teximal
