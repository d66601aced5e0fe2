package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"time"
)

// Mutations never modify their arguments. Each returns a new value whose
// edited collections are freshly allocated; untouched entities are shared.

// SetField returns a copy of entity with the field whose JSON name is key
// set to value. A nil value clears the field. Values that do not match the
// field type are converted through their JSON encoding, so decoded JSON
// (float64 numbers, []any lists) can be applied directly. Keys the entity
// does not declare are kept in its Extra map when it has one.
func SetField[T any](entity T, key string, value any) (T, error) {
	rv := reflect.ValueOf(&entity).Elem()
	rt := rv.Type()
	if rt.Kind() != reflect.Struct {
		return entity, &FieldError{Entity: rt.String(), Field: key, Err: fmt.Errorf("%s is not a document entity", rt)}
	}

	idx, ok := fieldIndex(rt, key)
	if !ok {
		extra := rv.FieldByName("Extra")
		if !extra.IsValid() || extra.Type() != reflect.TypeOf(map[string]json.RawMessage(nil)) {
			return entity, &FieldError{Entity: rt.Name(), Field: key, Err: ErrUnknownField}
		}
		m := maps.Clone(extra.Interface().(map[string]json.RawMessage))
		if value == nil {
			delete(m, key)
		} else {
			raw, err := json.Marshal(value)
			if err != nil {
				return entity, &FieldError{Entity: rt.Name(), Field: key, Err: err}
			}
			if m == nil {
				m = make(map[string]json.RawMessage)
			}
			m[key] = raw
		}
		extra.Set(reflect.ValueOf(m))
		return entity, nil
	}

	field := rv.Field(idx)
	if err := assign(field, value); err != nil {
		return entity, &FieldError{Entity: rt.Name(), Field: key, Err: err}
	}

	if n, ok := any(&entity).(*NewsItem); ok && n.AppID == NoApp {
		n.AppID = ""
	}
	return entity, nil
}

func fieldIndex(t reflect.Type, key string) (int, bool) {
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" && name == key {
			return i, true
		}
	}
	return 0, false
}

func assign(field reflect.Value, value any) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	val := reflect.ValueOf(value)
	ft := field.Type()
	switch {
	case val.Type().AssignableTo(ft):
		field.Set(val)
		return nil
	case ft.Kind() == reflect.Pointer && val.Type().AssignableTo(ft.Elem()):
		p := reflect.New(ft.Elem())
		p.Elem().Set(val)
		field.Set(p)
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	target := reflect.New(ft)
	if err := json.Unmarshal(raw, target.Interface()); err != nil {
		return fmt.Errorf("cannot assign %T to %s: %w", value, ft, err)
	}
	field.Set(target.Elem())
	return nil
}

// NewApp returns an app with empty required fields and empty collections.
func NewApp() App {
	return App{
		TintColor:   DefaultTintColor,
		Screenshots: &Screenshots{Images: []Screenshot{}},
		Versions:    []AppVersion{},
		AppPermissions: &AppPermissions{
			Entitlements: []string{},
			Privacy:      map[string]string{},
		},
	}
}

// AddApp appends NewApp() to src.Apps and returns the new document and the
// index of the added app.
func AddApp(src Source) (Source, int) {
	src.Apps = append(slices.Clip(src.Apps), NewApp())
	return src, len(src.Apps) - 1
}

// UpdateApp replaces the app at index.
func UpdateApp(src Source, index int, app App) (Source, error) {
	if err := checkIndex("apps", index, len(src.Apps)); err != nil {
		return src, err
	}
	src.Apps = slices.Clone(src.Apps)
	src.Apps[index] = app
	return src, nil
}

// DuplicateApp appends a deep copy of the app at index with " (Copy)"
// added to its name and ".copy" to its bundle identifier. The resulting
// identifier is not checked for uniqueness.
func DuplicateApp(src Source, index int) (Source, error) {
	if err := checkIndex("apps", index, len(src.Apps)); err != nil {
		return src, err
	}
	dup := src.Apps[index].Clone()
	dup.Name += " (Copy)"
	dup.BundleIdentifier += ".copy"
	src.Apps = append(slices.Clip(src.Apps), dup)
	return src, nil
}

// DeleteApp removes the app at index. Later apps shift down by one.
func DeleteApp(src Source, index int) (Source, error) {
	if err := checkIndex("apps", index, len(src.Apps)); err != nil {
		return src, err
	}
	src.Apps = slices.Delete(slices.Clone(src.Apps), index, index+1)
	return src, nil
}

// MoveApp moves the app at from to position to.
func MoveApp(src Source, from, to int) (Source, error) {
	apps, err := move("apps", src.Apps, from, to)
	if err != nil {
		return src, err
	}
	src.Apps = apps
	return src, nil
}

// NewNewsItem returns a news item with the defaults an editor starts from:
// a time-based identifier, today's date and notifications off.
func NewNewsItem(now time.Time) NewsItem {
	notify := false
	return NewsItem{
		Identifier: fmt.Sprintf("news_%d", now.UnixMilli()),
		Date:       now.Format(time.DateOnly),
		TintColor:  DefaultTintColor,
		Notify:     &notify,
	}
}

// AddNews appends a news item with empty required fields and returns the
// new document and the item's index.
func AddNews(src Source) (Source, int) {
	return AddNewsItem(src, NewsItem{})
}

// AddNewsItem appends item to src.News.
func AddNewsItem(src Source, item NewsItem) (Source, int) {
	if item.AppID == NoApp {
		item.AppID = ""
	}
	src.News = append(slices.Clip(src.News), item)
	return src, len(src.News) - 1
}

// UpdateNews replaces the news item at index.
func UpdateNews(src Source, index int, item NewsItem) (Source, error) {
	if err := checkIndex("news", index, len(src.News)); err != nil {
		return src, err
	}
	if item.AppID == NoApp {
		item.AppID = ""
	}
	src.News = slices.Clone(src.News)
	src.News[index] = item
	return src, nil
}

// DuplicateNews appends a copy of the news item at index with " (Copy)"
// added to its title and "_copy" to its identifier.
func DuplicateNews(src Source, index int) (Source, error) {
	if err := checkIndex("news", index, len(src.News)); err != nil {
		return src, err
	}
	dup := src.News[index].Clone()
	dup.Title += " (Copy)"
	dup.Identifier += "_copy"
	src.News = append(slices.Clip(src.News), dup)
	return src, nil
}

// DeleteNews removes the news item at index.
func DeleteNews(src Source, index int) (Source, error) {
	if err := checkIndex("news", index, len(src.News)); err != nil {
		return src, err
	}
	src.News = slices.Delete(slices.Clone(src.News), index, index+1)
	return src, nil
}

// MoveNews moves the news item at from to position to.
func MoveNews(src Source, from, to int) (Source, error) {
	news, err := move("news", src.News, from, to)
	if err != nil {
		return src, err
	}
	src.News = news
	return src, nil
}

// SetFeatured adds bundleID to or removes it from src.FeaturedApps. Adding
// an identifier already present changes nothing.
func SetFeatured(src Source, bundleID string, featured bool) Source {
	present := IsFeatured(src, bundleID)
	switch {
	case featured && !present:
		src.FeaturedApps = append(slices.Clip(src.FeaturedApps), bundleID)
	case !featured && present:
		src.FeaturedApps = slices.DeleteFunc(slices.Clone(src.FeaturedApps), func(id string) bool {
			return id == bundleID
		})
	}
	return src
}

// NewVersion returns the version an editor starts from, dated now.
func NewVersion(now time.Time) AppVersion {
	return AppVersion{
		Date:         now.Format(time.DateOnly),
		MinOSVersion: "14.0",
	}
}

// AddVersion puts v in front of the app's versions, making it current.
func AddVersion(app App, v AppVersion) App {
	app.Versions = slices.Insert(slices.Clone(app.Versions), 0, v)
	return app
}

// UpdateVersion replaces the version at index.
func UpdateVersion(app App, index int, v AppVersion) (App, error) {
	if err := checkIndex("versions", index, len(app.Versions)); err != nil {
		return app, err
	}
	app.Versions = slices.Clone(app.Versions)
	app.Versions[index] = v
	return app, nil
}

// DeleteVersion removes the version at index.
func DeleteVersion(app App, index int) (App, error) {
	if err := checkIndex("versions", index, len(app.Versions)); err != nil {
		return app, err
	}
	app.Versions = slices.Delete(slices.Clone(app.Versions), index, index+1)
	return app, nil
}

// AddScreenshot appends s to the device's screenshots. The flat form holds
// the iPhone list; adding an iPad screenshot to it switches the app to the
// per-device form with the flat images kept as its iPhone list.
func AddScreenshot(app App, device ScreenshotDevice, s Screenshot) (App, error) {
	images, err := deviceScreenshots(app, device)
	if err != nil {
		return app, err
	}
	return withDeviceScreenshots(app, device, append(images, s)), nil
}

// UpdateScreenshot replaces the device's screenshot at index.
func UpdateScreenshot(app App, device ScreenshotDevice, index int, s Screenshot) (App, error) {
	images, err := deviceScreenshots(app, device)
	if err != nil {
		return app, err
	}
	if err := checkIndex("screenshots", index, len(images)); err != nil {
		return app, err
	}
	images[index] = s
	return withDeviceScreenshots(app, device, images), nil
}

// DeleteScreenshot removes the device's screenshot at index.
func DeleteScreenshot(app App, device ScreenshotDevice, index int) (App, error) {
	images, err := deviceScreenshots(app, device)
	if err != nil {
		return app, err
	}
	if err := checkIndex("screenshots", index, len(images)); err != nil {
		return app, err
	}
	return withDeviceScreenshots(app, device, slices.Delete(images, index, index+1)), nil
}

// deviceScreenshots returns a fresh copy of the screenshots shown on device.
func deviceScreenshots(app App, device ScreenshotDevice) ([]Screenshot, error) {
	var images []Screenshot
	sc := app.Screenshots
	switch device {
	case DeviceIPhone:
		if sc != nil && sc.Devices != nil {
			images = sc.Devices.IPhone
		} else if sc != nil {
			images = sc.Images
		}
	case DeviceIPad:
		if sc != nil && sc.Devices != nil {
			images = sc.Devices.IPad
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, device)
	}
	return append([]Screenshot{}, images...), nil
}

// withDeviceScreenshots sets the device's list, leaving the other device's
// screenshots as they are.
func withDeviceScreenshots(app App, device ScreenshotDevice, images []Screenshot) App {
	sc := app.Screenshots
	if device == DeviceIPhone && (sc == nil || sc.Devices == nil) {
		app.Screenshots = &Screenshots{Images: images}
		return app
	}

	var devices DeviceScreenshots
	if sc != nil && sc.Devices != nil {
		devices = *sc.Devices
	} else if sc != nil {
		devices.IPhone = sc.Images
	}
	if device == DeviceIPhone {
		devices.IPhone = images
	} else {
		devices.IPad = images
	}
	app.Screenshots = &Screenshots{Devices: &devices}
	return app
}

// AddEntitlement appends value unless it is empty or already present.
func AddEntitlement(p AppPermissions, value string) AppPermissions {
	if value == "" || slices.Contains(p.Entitlements, value) {
		return p
	}
	p.Entitlements = append(slices.Clip(p.Entitlements), value)
	return p
}

// RemoveEntitlement drops value from the entitlements.
func RemoveEntitlement(p AppPermissions, value string) AppPermissions {
	if !slices.Contains(p.Entitlements, value) {
		return p
	}
	p.Entitlements = slices.DeleteFunc(slices.Clone(p.Entitlements), func(e string) bool {
		return e == value
	})
	return p
}

// SetPrivacyDescription inserts or overwrites the usage description for key.
func SetPrivacyDescription(p AppPermissions, key, value string) AppPermissions {
	privacy := maps.Clone(p.Privacy)
	if privacy == nil {
		privacy = make(map[string]string, 1)
	}
	privacy[key] = value
	p.Privacy = privacy
	return p
}

// RemovePrivacyDescription deletes the usage description for key.
func RemovePrivacyDescription(p AppPermissions, key string) AppPermissions {
	if _, ok := p.Privacy[key]; !ok {
		return p
	}
	privacy := maps.Clone(p.Privacy)
	delete(privacy, key)
	p.Privacy = privacy
	return p
}

func move[E any](collection string, s []E, from, to int) ([]E, error) {
	if err := checkIndex(collection, from, len(s)); err != nil {
		return s, err
	}
	if err := checkIndex(collection, to, len(s)); err != nil {
		return s, err
	}
	out := slices.Clone(s)
	elem := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, elem), nil
}
